package model

type DifficultyLevel string

const (
	DifficultyBasic    DifficultyLevel = "basic"
	DifficultyMedium   DifficultyLevel = "medium"
	DifficultyAdvanced DifficultyLevel = "advanced"
)

type ExplanationStyle string

const (
	ExplanationDetailed    ExplanationStyle = "detailed"
	ExplanationConcise     ExplanationStyle = "concise"
	ExplanationExamFocused ExplanationStyle = "exam-focused"
)

type LearningStyle string

const (
	LearningVisual       LearningStyle = "visual"
	LearningAuditory     LearningStyle = "auditory"
	LearningKinesthetic  LearningStyle = "kinesthetic"
	LearningReadingWrite LearningStyle = "reading-writing"
)

// ExamPlanData 学生提交的考试信息与自评，是计划生成的不可变输入
// swagger:model ExamPlanData
type ExamPlanData struct {
	ExamName         string           `json:"examName" validate:"required,max=200"`
	ExamDate         string           `json:"examDate" validate:"required,examdate"`
	ClassLevel       string           `json:"classLevel" validate:"max=100"`
	Subjects         []string         `json:"subjects" validate:"required,min=1,max=12,dive,required,max=100"`
	DailyHours       float64          `json:"dailyHours" validate:"gt=0,lte=24"`
	StudyTimeSlots   []string         `json:"studyTimeSlots" validate:"required,min=1,dive,required"`
	WeakAreas        string           `json:"weakAreas" validate:"max=2000"`
	StrongAreas      string           `json:"strongAreas" validate:"max=2000"`
	DifficultyLevel  DifficultyLevel  `json:"difficultyLevel" validate:"omitempty,oneof=basic medium advanced"`
	ExplanationStyle ExplanationStyle `json:"explanationStyle" validate:"omitempty,oneof=detailed concise exam-focused"`
	LearningStyle    LearningStyle    `json:"learningStyle" validate:"omitempty,oneof=visual auditory kinesthetic reading-writing"`

	IncludeExamples   bool `json:"includeExamples"`
	IncludePractice   bool `json:"includePractice"`
	IncludeRevision   bool `json:"includeRevision"`
	IncludeMotivation bool `json:"includeMotivation"`

	// Hints 由建议层重新生成计划时附加
	Hints []PlanHint `json:"hints,omitempty" validate:"omitempty,dive"`
}

type HintKind string

const (
	HintPreferredSlot HintKind = "preferred_time_slot"
	HintExtraTime     HintKind = "extra_time"
	HintBreakCadence  HintKind = "break_cadence"
)

// PlanHint 重新生成时的加权提示
type PlanHint struct {
	Kind HintKind `json:"kind" validate:"required,oneof=preferred_time_slot extra_time break_cadence"`
	// Subject 仅 extra_time 使用
	Subject string `json:"subject,omitempty"`
	// Weight 为 extra_time 的时长倍数，范围 (1, 2]
	Weight       float64 `json:"weight,omitempty" validate:"omitempty,gt=0,lte=2"`
	TimeSlot     string  `json:"timeSlot,omitempty"`
	FocusMinutes int     `json:"focusMinutes,omitempty" validate:"omitempty,min=5,max=180"`
	BreakMinutes int     `json:"breakMinutes,omitempty" validate:"omitempty,min=1,max=60"`
}
