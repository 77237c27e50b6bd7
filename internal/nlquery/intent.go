// Package nlquery implements the structured half of the natural-language
// medical query engine: a free-text question is classified against a fixed
// list of intent templates, typed parameters are extracted from the text,
// and the matched template is bound to the caller's organization scope
// before execution against the tenant data store.
package nlquery

import "regexp"

// IntentTemplate is a hand-authored, immutable query intent. The skeleton
// contains {placeholder} names; security placeholders are substituted only
// from the trusted caller context, never from the query text.
type IntentTemplate struct {
	Name           string
	Pattern        *regexp.Regexp
	Skeleton       string
	Description    string
	SecurityFields []string
	Defaults       map[string]int
	// DateColumn, when set, is the column used for the derived
	// days_back time-window clause.
	DateColumn string
	// OrgAlias is the table alias carrying the organization columns.
	// Skeletons join tables that each have organization_id, so the
	// scoping clause must name one alias or the store rejects the
	// statement as ambiguous.
	OrgAlias string
}

// intentTemplates is searched top to bottom; the first match wins. Order is
// authorial precedence: specific intents sit above the generic ones they
// overlap with (e.g. vision failures above failed tests, failed tests above
// unfit examinations).
var intentTemplates = []IntentTemplate{
	{
		Name:    "expiring_certificates",
		Pattern: regexp.MustCompile(`certificat\w*|compliance`),
		Skeleton: `SELECT p.first_name, p.last_name, p.id_number,
       cc.current_fitness_status, cc.current_expiry_date, cc.days_until_expiry
FROM patients p
JOIN certificate_compliance cc ON cc.patient_id = p.id
WHERE {org_filter}
  AND cc.days_until_expiry <= {expiry_days}
ORDER BY cc.current_expiry_date ASC`,
		Description:    "Patients whose certificates of fitness are expired or expiring soon",
		SecurityFields: []string{"org_filter"},
		Defaults:       map[string]int{"expiry_days": 30},
		OrgAlias:       "cc",
	},
	{
		Name:    "vision_test_failures",
		Pattern: regexp.MustCompile(`(vision|eye)\w*.*(fail\w*|abnormal)|fail\w*.*(vision|eye)`),
		Skeleton: `SELECT p.first_name, p.last_name, p.id_number,
       me.examination_type, me.examination_date, mtr.test_type, mtr.test_result
FROM medical_examinations me
JOIN patients p ON p.id = me.patient_id
JOIN medical_test_results mtr ON mtr.examination_id = me.id
WHERE {org_filter}
  AND mtr.test_type = 'vision'
  AND mtr.test_result ILIKE '%fail%'
ORDER BY me.examination_date DESC`,
		Description:    "Workers with failed vision test results",
		SecurityFields: []string{"org_filter"},
		DateColumn:     "me.examination_date",
		OrgAlias:       "me",
	},
	{
		Name:    "hearing_test_failures",
		Pattern: regexp.MustCompile(`(hearing|ear)\w*.*(fail\w*|abnormal)|fail\w*.*(hearing|ear)`),
		Skeleton: `SELECT p.first_name, p.last_name, p.id_number,
       me.examination_type, me.examination_date, mtr.test_type, mtr.test_result
FROM medical_examinations me
JOIN patients p ON p.id = me.patient_id
JOIN medical_test_results mtr ON mtr.examination_id = me.id
WHERE {org_filter}
  AND mtr.test_type = 'hearing'
  AND mtr.test_result ILIKE '%fail%'
ORDER BY me.examination_date DESC`,
		Description:    "Workers with failed hearing test results",
		SecurityFields: []string{"org_filter"},
		DateColumn:     "me.examination_date",
		OrgAlias:       "me",
	},
	{
		Name:    "drug_screen_failures",
		Pattern: regexp.MustCompile(`(drug|screen)\w*.*(fail\w*|positive)|(fail\w*|positive).*(drug|screen)`),
		Skeleton: `SELECT p.first_name, p.last_name, p.id_number,
       me.examination_type, me.examination_date, mtr.test_type, mtr.test_result
FROM medical_examinations me
JOIN patients p ON p.id = me.patient_id
JOIN medical_test_results mtr ON mtr.examination_id = me.id
WHERE {org_filter}
  AND mtr.test_type = 'drug_screen'
  AND (mtr.test_result ILIKE '%fail%' OR mtr.test_result ILIKE '%positive%')
ORDER BY me.examination_date DESC`,
		Description:    "Workers with failed or positive drug screening results",
		SecurityFields: []string{"org_filter"},
		DateColumn:     "me.examination_date",
		OrgAlias:       "me",
	},
	{
		Name:    "failed_tests",
		Pattern: regexp.MustCompile(`fail\w*.*test|test\w*.*fail`),
		Skeleton: `SELECT p.first_name, p.last_name, p.id_number,
       me.examination_type, me.examination_date, mtr.test_type, mtr.test_result
FROM medical_examinations me
JOIN patients p ON p.id = me.patient_id
JOIN medical_test_results mtr ON mtr.examination_id = me.id
WHERE {org_filter}
  AND mtr.test_result ILIKE '%fail%'
ORDER BY me.examination_date DESC`,
		Description:    "Workers with any failed medical test results",
		SecurityFields: []string{"org_filter"},
		DateColumn:     "me.examination_date",
		OrgAlias:       "me",
	},
	{
		Name:    "unfit_examinations",
		Pattern: regexp.MustCompile(`unfit|not\s+fit`),
		Skeleton: `SELECT p.first_name, p.last_name, p.id_number,
       me.examination_type, me.examination_date, me.fitness_status,
       me.company_name, me.job_title
FROM medical_examinations me
JOIN patients p ON p.id = me.patient_id
WHERE {org_filter}
  AND me.fitness_status IN ('unfit', 'temporary_unfit')
ORDER BY me.examination_date DESC`,
		Description:    "Medical examinations with an unfit outcome",
		SecurityFields: []string{"org_filter"},
		DateColumn:     "me.examination_date",
		OrgAlias:       "me",
	},
	{
		Name:    "fitness_restrictions",
		Pattern: regexp.MustCompile(`restrict\w*|condition\w*.*fit|fit.*condition\w*`),
		Skeleton: `SELECT p.first_name, p.last_name, p.id_number,
       me.examination_type, me.examination_date, me.fitness_status, me.restrictions
FROM medical_examinations me
JOIN patients p ON p.id = me.patient_id
WHERE {org_filter}
  AND me.fitness_status IN ('fit_with_restriction', 'fit_with_condition')
ORDER BY me.examination_date DESC`,
		Description:    "Workers who are fit for work only with restrictions or conditions",
		SecurityFields: []string{"org_filter"},
		DateColumn:     "me.examination_date",
		OrgAlias:       "me",
	},
	{
		Name:    "documents_pending_validation",
		Pattern: regexp.MustCompile(`document\w*.*(pending|validat\w*)|(pending|validat\w*).*document\w*`),
		Skeleton: `SELECT d.file_name, d.document_type, d.status, d.validation_status, d.created_at
FROM documents d
WHERE {org_filter}
  AND d.validation_status = 'pending'
ORDER BY d.created_at DESC`,
		Description:    "Uploaded documents awaiting validation",
		SecurityFields: []string{"org_filter"},
		DateColumn:     "d.created_at",
		OrgAlias:       "d",
	},
	{
		Name:    "follow_up_actions",
		Pattern: regexp.MustCompile(`follow.?up|recheck|monitor`),
		Skeleton: `SELECT p.first_name, p.last_name, p.id_number,
       me.examination_type, me.examination_date, me.follow_up_actions, me.comments
FROM medical_examinations me
JOIN patients p ON p.id = me.patient_id
WHERE {org_filter}
  AND me.follow_up_actions IS NOT NULL
  AND me.follow_up_actions <> ''
ORDER BY me.examination_date DESC`,
		Description:    "Workers needing follow-up medical actions",
		SecurityFields: []string{"org_filter"},
		DateColumn:     "me.examination_date",
		OrgAlias:       "me",
	},
	{
		Name:    "recent_examinations",
		Pattern: regexp.MustCompile(`examination\w*|\bexams?\b`),
		Skeleton: `SELECT p.first_name, p.last_name, p.id_number,
       me.examination_type, me.examination_date, me.fitness_status, me.expiry_date
FROM medical_examinations me
JOIN patients p ON p.id = me.patient_id
WHERE {org_filter}
ORDER BY me.examination_date DESC`,
		Description:    "Recent medical examinations",
		SecurityFields: []string{"org_filter"},
		DateColumn:     "me.examination_date",
		OrgAlias:       "me",
	},
}

// Templates returns the ordered intent template list.
func Templates() []IntentTemplate {
	return intentTemplates
}

// MatchIntent tests the query against each template in order and returns the
// first whose pattern matches. A miss is not an error: it signals the caller
// to fall back to the document-evidence pipeline.
func MatchIntent(query string) (*IntentTemplate, bool) {
	lowered := normalizeQuery(query)
	for i := range intentTemplates {
		if intentTemplates[i].Pattern.MatchString(lowered) {
			return &intentTemplates[i], true
		}
	}
	return nil, false
}
