package synthesis

// QuestionType distinguishes the two assessment question forms.
type QuestionType string

const (
	MCQ         QuestionType = "MCQ"
	ShortAnswer QuestionType = "Short Answer"
)

// Bloom levels accepted on questions.
var BloomLevels = []string{"Remember", "Understand", "Apply", "Analyze", "Evaluate", "Create"}

// Question is one entry of an Assessment. Numbers form a contiguous 1-based
// sequence matching array position; the gateway enforces this regardless of
// what the model returned.
type Question struct {
	Number        int          `json:"question_number"`
	Text          string       `json:"question_text"`
	Type          QuestionType `json:"question_type"`
	Options       []string     `json:"options,omitempty"`        // MCQ only, exactly 4
	CorrectAnswer string       `json:"correct_answer,omitempty"` // MCQ only
	BloomLevel    string       `json:"bloom_level"`
	Marks         int          `json:"marks"`
}

// Assessment is a generated test paper. TotalQuestions always equals
// len(Questions).
type Assessment struct {
	Title          string     `json:"assessment_title"`
	TotalQuestions int        `json:"total_questions"`
	Source         string     `json:"source,omitempty"`
	Questions      []Question `json:"questions"`

	// Note is set when the assessment is a degraded fallback.
	Note string `json:"note,omitempty"`
}

// AssessmentSpec describes what to generate.
type AssessmentSpec struct {
	Subject      string `json:"subject"`
	Unit         string `json:"unit"`
	Difficulty   string `json:"difficulty"`
	NumQuestions int    `json:"num_questions"`
}

// MarksInsight is the advisory analysis of a gradebook narrative.
type MarksInsight struct {
	PerformanceSummary string `json:"performance_summary"`
	TeachingStrategy   string `json:"teaching_strategy"`
}

// Feedback is personalized student feedback. Name and score are echoed from
// the request; the four text fields come from synthesis.
type Feedback struct {
	StudentName         string  `json:"student_name"`
	Score               float64 `json:"score"`
	Strengths           string  `json:"strengths"`
	WeakAreas           string  `json:"weak_areas"`
	ImprovementPlan     string  `json:"improvement_plan"`
	MotivationalMessage string  `json:"motivational_message"`
}

// FeedbackSpec describes whose feedback to generate.
type FeedbackSpec struct {
	StudentName string   `json:"student_name"`
	Score       float64  `json:"score"`
	WeakTopics  []string `json:"weak_topics"`
}

// SyllabusInsight is the topic extraction from a syllabus text.
type SyllabusInsight struct {
	MajorTopics     []string `json:"major_topics"`
	AssessmentFocus []string `json:"assessment_focus"`
}

// AttendanceInsight is the advisory analysis of an attendance summary.
// EngagementScore is expected in [0,100] but is passed through unclamped:
// consuming endpoints must treat the generative service as untrusted input.
type AttendanceInsight struct {
	RiskAnalysis    string   `json:"risk_analysis"`
	EngagementScore float64  `json:"engagement_score"`
	Suggestions     []string `json:"suggestions"`
}

// GapReport cross-references performance with syllabus topics. The gateway
// does not validate topic provenance: detected gaps are whatever the model
// returned, which may include terms outside the supplied syllabus.
type GapReport struct {
	DetectedGaps []string `json:"detected_gaps"`
	RecoveryPlan string   `json:"recovery_plan"`
	AtRiskTopics []string `json:"at_risk_topics"`
}

// AttendanceEntry is one structured record recovered from free attendance
// text. Status is exactly "Present" or "Absent"; entries that do not
// normalize are dropped, not guessed.
type AttendanceEntry struct {
	StudentName string `json:"student_name"`
	Status      string `json:"status"`
}

// LectureNotes is the structured form of a lecture transcript.
type LectureNotes struct {
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	Topics      []string `json:"topics"`
	Concepts    []string `json:"concepts"`
	Definitions []string `json:"definitions"`
	Examples    []string `json:"examples"`
}

// normalize replaces nil slices with empty ones so downstream JSON encodes
// arrays, not nulls.
func (n *LectureNotes) normalize() {
	if n.Topics == nil {
		n.Topics = []string{}
	}
	if n.Concepts == nil {
		n.Concepts = []string{}
	}
	if n.Definitions == nil {
		n.Definitions = []string{}
	}
	if n.Examples == nil {
		n.Examples = []string{}
	}
}

// EngagementReport aggregates marks and attendance signals into a class
// engagement view. Score semantics match AttendanceInsight.EngagementScore.
type EngagementReport struct {
	EngagementScore float64  `json:"engagement_score"`
	Summary         string   `json:"summary"`
	Suggestions     []string `json:"suggestions"`
}
