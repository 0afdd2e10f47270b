package survey

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Field names as they appear in JSON payloads and spreadsheet headers.
const (
	FieldID                = "id"
	FieldAge               = "age"
	FieldTrainingDuration  = "trainingDuration"
	FieldTrainingPlan      = "trainingPlan"
	FieldBeginnerHelp      = "beginnerHelp"
	FieldAIHelp            = "aiHelp"
	FieldSocial            = "Social"
	FieldTrainingChallenge = "trainingChallenge"
	FieldResearchInterest  = "researchInterest"
	FieldEmail             = "email"
	FieldSubmittedAt       = "submittedAt"
)

// AnswerFields lists the respondent answers in presentation order.
var AnswerFields = []string{
	FieldAge,
	FieldTrainingDuration,
	FieldTrainingPlan,
	FieldBeginnerHelp,
	FieldAIHelp,
	FieldSocial,
	FieldTrainingChallenge,
	FieldResearchInterest,
}

// Columns is the canonical column order used when a new sheet header is written.
var Columns = append(append([]string{}, AnswerFields...), FieldEmail, FieldSubmittedAt)

// Record is one respondent's answers plus email and submission time.
// Answers keep the raw JSON scalar sent by the client so they round-trip unchanged.
type Record struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Age               datatypes.JSON `gorm:"column:age" json:"age"`
	TrainingDuration  datatypes.JSON `gorm:"column:training_duration" json:"trainingDuration"`
	TrainingPlan      datatypes.JSON `gorm:"column:training_plan" json:"trainingPlan"`
	BeginnerHelp      datatypes.JSON `gorm:"column:beginner_help" json:"beginnerHelp"`
	AIHelp            datatypes.JSON `gorm:"column:ai_help" json:"aiHelp"`
	Social            datatypes.JSON `gorm:"column:social" json:"Social"`
	TrainingChallenge datatypes.JSON `gorm:"column:training_challenge" json:"trainingChallenge"`
	ResearchInterest  datatypes.JSON `gorm:"column:research_interest" json:"researchInterest"`
	Email             string         `gorm:"column:email;not null;uniqueIndex:idx_surveys_email" json:"email"`
	SubmittedAt       time.Time      `gorm:"column:submitted_at;not null;index" json:"submittedAt"`
}

func (Record) TableName() string { return "surveys" }

// Stamp fills the server-assigned fields that are still empty. Timestamps keep
// millisecond precision so every backend stores them exactly.
func (r *Record) Stamp(now time.Time) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.SubmittedAt.IsZero() {
		r.SubmittedAt = now.UTC().Truncate(time.Millisecond)
	}
}

func (r *Record) Answer(field string) datatypes.JSON {
	if p := r.answerRef(field); p != nil {
		return *p
	}
	return nil
}

// SetAnswer assigns an answer by field name and reports whether the name is known.
func (r *Record) SetAnswer(field string, v datatypes.JSON) bool {
	p := r.answerRef(field)
	if p == nil {
		return false
	}
	*p = v
	return true
}

func (r *Record) answerRef(field string) *datatypes.JSON {
	switch field {
	case FieldAge:
		return &r.Age
	case FieldTrainingDuration:
		return &r.TrainingDuration
	case FieldTrainingPlan:
		return &r.TrainingPlan
	case FieldBeginnerHelp:
		return &r.BeginnerHelp
	case FieldAIHelp:
		return &r.AIHelp
	case FieldSocial, "teenSocial":
		return &r.Social
	case FieldTrainingChallenge:
		return &r.TrainingChallenge
	case FieldResearchInterest:
		return &r.ResearchInterest
	default:
		return nil
	}
}

// Submission is the inbound payload. Older clients send the social answer as
// teenSocial; it is folded into Social.
type Submission struct {
	Age               datatypes.JSON `json:"age"`
	TrainingDuration  datatypes.JSON `json:"trainingDuration"`
	TrainingPlan      datatypes.JSON `json:"trainingPlan"`
	BeginnerHelp      datatypes.JSON `json:"beginnerHelp"`
	AIHelp            datatypes.JSON `json:"aiHelp"`
	Social            datatypes.JSON `json:"Social"`
	TeenSocial        datatypes.JSON `json:"teenSocial"`
	TrainingChallenge datatypes.JSON `json:"trainingChallenge"`
	ResearchInterest  datatypes.JSON `json:"researchInterest"`
	Email             string         `json:"email"`
}

func (s Submission) Record() *Record {
	social := s.Social
	if IsNull(social) {
		social = s.TeenSocial
	}
	return &Record{
		Age:               s.Age,
		TrainingDuration:  s.TrainingDuration,
		TrainingPlan:      s.TrainingPlan,
		BeginnerHelp:      s.BeginnerHelp,
		AIHelp:            s.AIHelp,
		Social:            social,
		TrainingChallenge: s.TrainingChallenge,
		ResearchInterest:  s.ResearchInterest,
		Email:             s.Email,
	}
}

// IsNull reports whether an answer is absent or JSON null.
func IsNull(v datatypes.JSON) bool {
	t := bytes.TrimSpace(v)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// Scalar decodes an answer into a plain Go value (string, float64, bool, or nil).
func Scalar(v datatypes.JSON) interface{} {
	if IsNull(v) {
		return nil
	}
	var out interface{}
	if err := json.Unmarshal(v, &out); err != nil {
		return strings.TrimSpace(string(v))
	}
	return out
}

// FromScalar encodes a plain value as an answer. Nil becomes null.
func FromScalar(v interface{}) datatypes.JSON {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
