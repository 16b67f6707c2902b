package model

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type TopicImportance string

const (
	TopicCritical  TopicImportance = "critical"
	TopicImportant TopicImportance = "important"
	TopicModerate  TopicImportance = "moderate"
)

type TaskType string

const (
	TaskStudy    TaskType = "study"
	TaskRevision TaskType = "revision"
	TaskPractice TaskType = "practice"
	TaskTest     TaskType = "test"
)

type TaskPriority string

const (
	TaskUrgent    TaskPriority = "urgent"
	TaskImportant TaskPriority = "important"
	TaskNormal    TaskPriority = "normal"
)

type PlanSource string

const (
	SourceGenerated PlanSource = "generated"
	SourceFallback  PlanSource = "fallback"
)

// StudyPlan 生成结果的聚合根，重新生成时整体替换
// swagger:model StudyPlan
type StudyPlan struct {
	Overview           string        `json:"overview"`
	StartDate          string        `json:"startDate"`
	TotalDaysAvailable int           `json:"totalDaysAvailable"`
	DailyStudyHours    float64       `json:"dailyStudyHours"`
	SubjectPlans       []SubjectPlan `json:"subjectPlans"`
	DailyTasks         []DailyTask   `json:"dailyTasks"`
	WeeklyGoals        []WeeklyGoal  `json:"weeklyGoals"`
	RevisionStrategy   string        `json:"revisionStrategy"`
	ExamTips           []string      `json:"examTips"`
	MotivationalQuotes []string      `json:"motivationalQuotes"`
	Milestones         []Milestone   `json:"milestones"`
	ScheduledThrough   string        `json:"scheduledThrough"`
	Source             PlanSource    `json:"source"`
}

type SubjectPlan struct {
	Subject          string         `json:"subject"`
	Priority         Priority       `json:"priority"`
	Chapters         []ChapterInfo  `json:"chapters"`
	Strategy         string         `json:"strategy"`
	RevisionSchedule []RevisionSlot `json:"revisionSchedule"`
}

type RevisionSlot struct {
	Week     int      `json:"week"`
	Focus    string   `json:"focus"`
	Chapters []string `json:"chapters"`
}

type ChapterInfo struct {
	ChapterNumber     int         `json:"chapterNumber"`
	ChapterName       string      `json:"chapterName"`
	Importance        Priority    `json:"importance"`
	EstimatedHours    float64     `json:"estimatedHours"`
	Topics            []TopicInfo `json:"topics"`
	PracticeQuestions int         `json:"practiceQuestions"`
	RevisionTips      string      `json:"revisionTips,omitempty"`
	ExamStrategy      string      `json:"examStrategy,omitempty"`
	CommonMistakes    []string    `json:"commonMistakes,omitempty"`
}

type TopicInfo struct {
	TopicName         string          `json:"topicName"`
	Importance        TopicImportance `json:"importance"`
	EstimatedMinutes  int             `json:"estimatedMinutes"`
	Description       string          `json:"description"`
	KeyPoints         []string        `json:"keyPoints"`
	WhatToStudy       []string        `json:"whatToStudy"`
	HowToStudy        []string        `json:"howToStudy"`
	PracticeQuestions []string        `json:"practiceQuestions"`
	MemoryTricks      []string        `json:"memoryTricks"`
	StudyTips         []string        `json:"studyTips"`
}

type DailyTask struct {
	ID                   string       `json:"id"`
	Date                 string       `json:"date"`
	Day                  string       `json:"day,omitempty"`
	Subject              string       `json:"subject"`
	Chapter              string       `json:"chapter"`
	Topic                string       `json:"topic"`
	Duration             int          `json:"duration"`
	Type                 TaskType     `json:"type"`
	Priority             TaskPriority `json:"priority"`
	Description          string       `json:"description"`
	DetailedInstructions []string     `json:"detailedInstructions"`
	Completed            bool         `json:"completed"`
	CompletedAt          string       `json:"completedAt,omitempty"`
	Score                *int         `json:"score,omitempty"`
	Feedback             string       `json:"feedback,omitempty"`
	TimeSpent            *int         `json:"timeSpent,omitempty"`
	DifficultyRating     *int         `json:"difficultyRating,omitempty"`
}

type WeeklyGoal struct {
	Week             int      `json:"week"`
	StartDate        string   `json:"startDate"`
	EndDate          string   `json:"endDate"`
	Subjects         []string `json:"subjects"`
	TargetChapters   []string `json:"targetChapters"`
	TargetCompletion int      `json:"targetCompletion"`
	Focus            string   `json:"focus"`
	Assessment       string   `json:"assessment"`
}

type Milestone struct {
	Week        int      `json:"week"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Reward      string   `json:"reward"`
	Criteria    []string `json:"criteria"`
}

// FindTask 按ID查找任务，返回其下标
func (p *StudyPlan) FindTask(taskID string) (int, bool) {
	for i := range p.DailyTasks {
		if p.DailyTasks[i].ID == taskID {
			return i, true
		}
	}
	return -1, false
}

// CompletedTasks 已完成的任务数
func (p *StudyPlan) CompletedTasks() int {
	n := 0
	for _, t := range p.DailyTasks {
		if t.Completed {
			n++
		}
	}
	return n
}
