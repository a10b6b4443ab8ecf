package models

import "time"

// Record represents one student row mapped onto the template fields
type Record struct {
	NameZh       string `json:"name_zh"`        // Name in the source script
	NameEn       string `json:"name_en"`        // Romanized "Surname, Firstname"
	GenderZh     string `json:"gender_zh"`      // Gender as written in the sheet
	GenderEn     string `json:"gender_en"`      // Male / Female
	IDTypeZh     string `json:"id_type_zh"`     // ID type as written, defaults to 身份证
	IDTypeEn     string `json:"id_type_en"`     // ID Card / Passport / ID Document
	IDNumber     string `json:"id_number"`      // ID number, quotes stripped
	DOBZh        string `json:"dob_zh"`         // Date of birth, 2006年01月02日
	DOBEn        string `json:"dob_en"`         // Date of birth, January 02, 2006
	StudentID    string `json:"student_id"`     // Student number
	AdmitYear    string `json:"admit_year"`     // Admission year
	AdmitMonth   string `json:"admit_month"`    // Admission month number
	AdmitMonthEn string `json:"admit_month_en"` // Admission month name
	DateZh       string `json:"date_zh"`        // Issue date, 2006年01月02日
	DateEn       string `json:"date_en"`        // Issue date, January 02, 2006
	Grade        string `json:"grade"`          // Grade as written in the sheet
	GradeEn      string `json:"grade_en"`       // e.g. "3rd Grade"
}

// Record field keys. They double as template tags and grid headers.
const (
	KeyNameZh       = "name_zh"
	KeyNameEn       = "name_en"
	KeyGenderZh     = "gender_zh"
	KeyGenderEn     = "gender_en"
	KeyIDTypeZh     = "id_type_zh"
	KeyIDTypeEn     = "id_type_en"
	KeyIDNumber     = "id_number"
	KeyDOBZh        = "dob_zh"
	KeyDOBEn        = "dob_en"
	KeyStudentID    = "student_id"
	KeyAdmitYear    = "admit_year"
	KeyAdmitMonth   = "admit_month"
	KeyAdmitMonthEn = "admit_month_en"
	KeyDateZh       = "date_zh"
	KeyDateEn       = "date_en"
	KeyGrade        = "grade"
	KeyGradeEn      = "grade_en"
)

type recordField struct {
	key string
	ptr func(r *Record) *string
}

var recordFields = []recordField{
	{KeyNameZh, func(r *Record) *string { return &r.NameZh }},
	{KeyGenderZh, func(r *Record) *string { return &r.GenderZh }},
	{KeyIDTypeZh, func(r *Record) *string { return &r.IDTypeZh }},
	{KeyGrade, func(r *Record) *string { return &r.Grade }},
	{KeyStudentID, func(r *Record) *string { return &r.StudentID }},
	{KeyIDNumber, func(r *Record) *string { return &r.IDNumber }},
	{KeyDOBZh, func(r *Record) *string { return &r.DOBZh }},
	{KeyDOBEn, func(r *Record) *string { return &r.DOBEn }},
	{KeyAdmitYear, func(r *Record) *string { return &r.AdmitYear }},
	{KeyAdmitMonth, func(r *Record) *string { return &r.AdmitMonth }},
	{KeyAdmitMonthEn, func(r *Record) *string { return &r.AdmitMonthEn }},
	{KeyDateZh, func(r *Record) *string { return &r.DateZh }},
	{KeyDateEn, func(r *Record) *string { return &r.DateEn }},
	{KeyNameEn, func(r *Record) *string { return &r.NameEn }},
	{KeyGenderEn, func(r *Record) *string { return &r.GenderEn }},
	{KeyIDTypeEn, func(r *Record) *string { return &r.IDTypeEn }},
	{KeyGradeEn, func(r *Record) *string { return &r.GradeEn }},
}

// RecordKeys returns the record field keys in grid column order
func RecordKeys() []string {
	keys := make([]string, len(recordFields))
	for i, f := range recordFields {
		keys[i] = f.key
	}
	return keys
}

// IsRecordKey reports whether key names a record field
func IsRecordKey(key string) bool {
	for _, f := range recordFields {
		if f.key == key {
			return true
		}
	}
	return false
}

// Get returns the value stored under key, or "" for unknown keys
func (r *Record) Get(key string) string {
	for _, f := range recordFields {
		if f.key == key {
			return *f.ptr(r)
		}
	}
	return ""
}

// Set stores value under key. It reports false for unknown keys.
func (r *Record) Set(key, value string) bool {
	for _, f := range recordFields {
		if f.key == key {
			*f.ptr(r) = value
			return true
		}
	}
	return false
}

// Values returns the field values in RecordKeys order
func (r *Record) Values() []string {
	values := make([]string, len(recordFields))
	for i, f := range recordFields {
		values[i] = *f.ptr(r)
	}
	return values
}

// Context returns the record as a template rendering context
func (r *Record) Context() map[string]interface{} {
	ctx := make(map[string]interface{}, len(recordFields))
	for _, f := range recordFields {
		ctx[f.key] = *f.ptr(r)
	}
	return ctx
}

// Batch is a set of records loaded from one spreadsheet upload
type Batch struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`    // Uploaded file name or "paste"
	CreatedAt time.Time `json:"createdAt"` // Load time
	Keys      []string  `json:"keys"`      // Grid column order
	Records   []Record  `json:"records"`
	Skipped   int       `json:"skipped"` // Rows dropped for a missing name
}

// JobStatus is the lifecycle state of a generation job
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job tracks one document generation run over a batch
type Job struct {
	ID        string    `json:"id"`
	BatchID   string    `json:"batchId"`
	Status    JobStatus `json:"status"`
	Stage     string    `json:"stage,omitempty"`
	Current   int       `json:"current"`
	Total     int       `json:"total"`
	Progress  float64   `json:"progress"` // 0..1
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
	OutputDir string    `json:"outputDir,omitempty"`
	Documents []string  `json:"documents,omitempty"`
	PDFs      []string  `json:"pdfs,omitempty"`
	Merged    string    `json:"merged,omitempty"`
	Archive   string    `json:"archive,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Done reports whether the job reached a terminal state
func (j *Job) Done() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}
