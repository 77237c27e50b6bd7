package nlquery

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/surehealth/occuhealth-ai-platform/internal/tenancy"
)

// BoundQuery is an intent template with every placeholder substituted.
// Security fields come exclusively from the trusted caller context; the
// free-text query contributes only intent selection and parameter values.
type BoundQuery struct {
	SQL      string
	Template *IntentTemplate
}

// BindError indicates the binder refused to produce an executable query.
type BindError struct {
	Reason string
}

func (e *BindError) Error() string {
	return "nlquery: bind failed: " + e.Reason
}

var placeholderRE = regexp.MustCompile(`\{[a-z_]+\}`)

// Bind merges the matched template, the extracted parameters, and the
// caller's organization identity into an executable query. It fails closed:
// an invalid organization id or an unresolved placeholder yields an error
// and no query.
func Bind(tpl *IntentTemplate, params UserParams, caller tenancy.TrustedContext) (BoundQuery, error) {
	if tpl == nil {
		return BoundQuery{}, &BindError{Reason: "nil template"}
	}
	if err := caller.Validate(); err != nil {
		return BoundQuery{}, &BindError{Reason: err.Error()}
	}

	orgFilter, err := buildOrgFilter(caller, tpl.OrgAlias)
	if err != nil {
		return BoundQuery{}, err
	}

	sql := tpl.Skeleton
	for _, field := range tpl.SecurityFields {
		sql = strings.ReplaceAll(sql, "{"+field+"}", orgFilter)
	}

	sql = substituteParam(sql, "expiry_days", params.ExpiryDays, tpl.Defaults)
	sql = substituteParam(sql, "days_back", params.DaysBack, tpl.Defaults)

	if params.DaysBack != nil && tpl.DateColumn != "" {
		sql = insertTimeWindow(sql, tpl.DateColumn, *params.DaysBack)
	}

	if leftover := placeholderRE.FindString(sql); leftover != "" {
		return BoundQuery{}, &BindError{Reason: "unresolved placeholder " + leftover}
	}

	return BoundQuery{SQL: sql, Template: tpl}, nil
}

// buildOrgFilter produces the tenant-scoping clause from caller identity
// alone. The organization columns are qualified with the template's alias:
// the skeletons join tables that each carry them, so an unqualified name is
// ambiguous to the store. When the accessible-client set is empty the
// client clause is omitted entirely, never replaced with an always-true
// condition.
func buildOrgFilter(caller tenancy.TrustedContext, alias string) (string, error) {
	orgID, err := safeOrgID(caller.OrgID)
	if err != nil {
		return "", err
	}

	prefix := ""
	if alias != "" {
		prefix = alias + "."
	}

	clientIDs := caller.AccessibleClientOrgs()
	if len(clientIDs) == 0 {
		return fmt.Sprintf("(%sorganization_id = '%s')", prefix, orgID), nil
	}

	quoted := make([]string, 0, len(clientIDs))
	for _, id := range clientIDs {
		safe, err := safeOrgID(id)
		if err != nil {
			return "", err
		}
		quoted = append(quoted, "'"+safe+"'")
	}
	return fmt.Sprintf("(%sorganization_id = '%s' OR %sclient_organization_id IN (%s))",
		prefix, orgID, prefix, strings.Join(quoted, ",")), nil
}

// safeOrgID accepts only canonical UUIDs. Organization ids arrive from the
// authenticated caller context, but malformed ones are rejected outright
// rather than quoted into SQL.
func safeOrgID(id string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", &BindError{Reason: "invalid organization id"}
	}
	return parsed.String(), nil
}

func substituteParam(sql, name string, value *int, defaults map[string]int) string {
	placeholder := "{" + name + "}"
	if !strings.Contains(sql, placeholder) {
		return sql
	}
	v, ok := defaults[name]
	if value != nil {
		v, ok = *value, true
	}
	if !ok {
		// Leave the placeholder so the closure check fails closed.
		return sql
	}
	return strings.ReplaceAll(sql, placeholder, strconv.Itoa(v))
}

// insertTimeWindow appends the derived days_back clause, placed before any
// trailing ORDER BY so the statement stays valid.
func insertTimeWindow(sql, dateColumn string, daysBack int) string {
	clause := fmt.Sprintf("  AND %s >= CURRENT_DATE - INTERVAL '%d days'", dateColumn, daysBack)

	upper := strings.ToUpper(sql)
	idx := strings.LastIndex(upper, "ORDER BY")
	if idx < 0 {
		return sql + "\n" + clause
	}
	return sql[:idx] + clause + "\n" + sql[idx:]
}
