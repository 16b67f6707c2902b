package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"study_plan_backend/internal/model"
	"time"
)

type RecommendationKind string

const (
	RecommendTimeSlot     RecommendationKind = "time_slot"
	RecommendExtraTime    RecommendationKind = "extra_time"
	RecommendBreakCadence RecommendationKind = "break_cadence"
)

const (
	lowScoreThreshold     = 60
	hardDifficultyRating  = 4
	overrunRatio          = 1.2
	minSamplesForPerfSlot = 3
)

// Recommendation 非强制性的调整建议，应用时作为提示重新生成计划
type Recommendation struct {
	ID         string             `json:"id"`
	Kind       RecommendationKind `json:"kind"`
	Title      string             `json:"title"`
	Reason     string             `json:"reason"`
	Confidence float64            `json:"confidence"`
	Hint       model.PlanHint     `json:"hint"`
}

type SubjectStats struct {
	Subject        string  `json:"subject"`
	TasksAssigned  int     `json:"tasksAssigned"`
	TasksCompleted int     `json:"tasksCompleted"`
	Completion     int     `json:"completion"`
	AverageScore   float64 `json:"averageScore"`
	PlannedMinutes int     `json:"plannedMinutes"`
	MinutesStudied int     `json:"minutesStudied"`
}

type PlanAnalytics struct {
	PlanID         string                 `json:"planId"`
	Completion     int                    `json:"completion"`
	TotalPoints    int                    `json:"totalPoints"`
	CurrentStreak  int                    `json:"currentStreak"`
	LongestStreak  int                    `json:"longestStreak"`
	BadgesEarned   int                    `json:"badgesEarned"`
	DaysLeft       int                    `json:"daysLeft"`
	Subjects       []SubjectStats         `json:"subjects"`
	WeeklyProgress []model.WeeklySnapshot `json:"weeklyProgress"`
}

// AdvisoryService 根据自评和完成记录给出建议，从不直接修改已有计划
type AdvisoryService struct {
	Plans    *StudyPlanService
	Progress *ProgressService
}

func NewAdvisoryService(plans *StudyPlanService, progress *ProgressService) *AdvisoryService {
	return &AdvisoryService{Plans: plans, Progress: progress}
}

func (s *AdvisoryService) Recommend(ctx context.Context, userID, planID string) ([]Recommendation, error) {
	plan, err := s.Plans.GetPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	progress, err := s.Progress.GetProgress(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	recs := make([]Recommendation, 0, 4)
	if r, ok := recommendTimeSlot(plan.ExamData, progress.FeedbackLog); ok {
		recs = append(recs, r)
	}
	recs = append(recs, recommendExtraTime(plan.ExamData, progress.FeedbackLog)...)
	recs = append(recs, recommendBreakCadence(plan.ExamData, progress.FeedbackLog))
	return recs, nil
}

func timeSlotOf(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return "morning"
	case h >= 12 && h < 17:
		return "afternoon"
	case h >= 17 && h < 21:
		return "evening"
	default:
		return "night"
	}
}

func recommendTimeSlot(exam model.ExamPlanData, log []model.TaskFeedback) (Recommendation, bool) {
	type slotStat struct {
		count    int
		scoreSum int
		scored   int
	}
	stats := map[string]*slotStat{}
	for _, f := range log {
		slot := timeSlotOf(f.CompletedAt)
		st, ok := stats[slot]
		if !ok {
			st = &slotStat{}
			stats[slot] = st
		}
		st.count++
		if f.Score != nil {
			st.scoreSum += *f.Score
			st.scored++
		}
	}

	if len(log) >= minSamplesForPerfSlot {
		best, bestAvg := "", -1.0
		bestCount := 0
		for _, slot := range []string{"morning", "afternoon", "evening", "night"} {
			st, ok := stats[slot]
			if !ok {
				continue
			}
			avg := 0.0
			if st.scored > 0 {
				avg = float64(st.scoreSum) / float64(st.scored)
			}
			if st.count > bestCount || (st.count == bestCount && avg > bestAvg) {
				best, bestAvg, bestCount = slot, avg, st.count
			}
		}
		conf := math.Min(0.9, 0.4+0.05*float64(len(log)))
		return Recommendation{
			ID:         string(RecommendTimeSlot),
			Kind:       RecommendTimeSlot,
			Title:      fmt.Sprintf("Schedule demanding topics in the %s", best),
			Reason:     fmt.Sprintf("%d of your %d completed tasks were finished in the %s.", bestCount, len(log), best),
			Confidence: round2(conf),
			Hint:       model.PlanHint{Kind: model.HintPreferredSlot, TimeSlot: best},
		}, true
	}

	if len(exam.StudyTimeSlots) == 0 {
		return Recommendation{}, false
	}
	slot := strings.TrimSpace(exam.StudyTimeSlots[0])
	return Recommendation{
		ID:         string(RecommendTimeSlot),
		Kind:       RecommendTimeSlot,
		Title:      fmt.Sprintf("Schedule demanding topics in the %s", slot),
		Reason:     "Based on the study time you selected. Complete more tasks to refine this.",
		Confidence: 0.3,
		Hint:       model.PlanHint{Kind: model.HintPreferredSlot, TimeSlot: slot},
	}, true
}

// recommendExtraTime 自评薄弱科目与表现较差的科目，两者都命中时置信度最高
func recommendExtraTime(exam model.ExamPlanData, log []model.TaskFeedback) []Recommendation {
	weakAreas := strings.ToLower(exam.WeakAreas)
	type perf struct {
		scoreSum, scored, hard, overrun int
	}
	bySubject := map[string]*perf{}
	for _, f := range log {
		p, ok := bySubject[f.Subject]
		if !ok {
			p = &perf{}
			bySubject[f.Subject] = p
		}
		if f.Score != nil {
			p.scoreSum += *f.Score
			p.scored++
		}
		if f.DifficultyRating != nil && *f.DifficultyRating >= hardDifficultyRating {
			p.hard++
		}
		if f.PlannedMinutes > 0 && float64(f.TimeSpent) > float64(f.PlannedMinutes)*overrunRatio {
			p.overrun++
		}
	}

	var out []Recommendation
	for _, subject := range requestedSubjects(exam) {
		selfReported := weakAreas != "" && strings.Contains(weakAreas, strings.ToLower(subject))

		var reasons []string
		if p, ok := bySubject[subject]; ok {
			if p.scored > 0 && p.scoreSum/p.scored < lowScoreThreshold {
				reasons = append(reasons, fmt.Sprintf("average score %d", p.scoreSum/p.scored))
			}
			if p.hard > 0 {
				reasons = append(reasons, fmt.Sprintf("%d tasks rated hard", p.hard))
			}
			if p.overrun > 0 {
				reasons = append(reasons, fmt.Sprintf("%d tasks took longer than planned", p.overrun))
			}
		}
		measured := len(reasons) > 0
		if !selfReported && !measured {
			continue
		}

		weight, conf := 1.25, 0.5
		switch {
		case selfReported && measured:
			weight, conf = 1.5, 0.8
		case measured:
			conf = math.Min(0.75, 0.55+0.05*float64(len(reasons)))
		}
		if selfReported {
			reasons = append([]string{"listed as a weak area"}, reasons...)
		}
		out = append(out, Recommendation{
			ID:         string(RecommendExtraTime) + ":" + subject,
			Kind:       RecommendExtraTime,
			Title:      fmt.Sprintf("Give %s %d%% more time", subject, int(math.Round((weight-1)*100))),
			Reason:     strings.Join(reasons, ", "),
			Confidence: round2(conf),
			Hint:       model.PlanHint{Kind: model.HintExtraTime, Subject: subject, Weight: weight},
		})
	}
	return out
}

func recommendBreakCadence(exam model.ExamPlanData, log []model.TaskFeedback) Recommendation {
	hard, rated := 0, 0
	for _, f := range log {
		if f.DifficultyRating != nil {
			rated++
			if *f.DifficultyRating >= hardDifficultyRating {
				hard++
			}
		}
	}

	focus, rest := 25, 5
	reason := "Short focus blocks help you keep concentration."
	switch {
	case rated > 0 && hard*2 >= rated:
		reason = "Most of your tasks felt hard, so shorter blocks with breaks will help."
	case exam.DailyHours >= 4:
		focus, rest = 50, 10
		reason = fmt.Sprintf("With %.1f hours a day, longer blocks reduce context switching.", exam.DailyHours)
	}

	conf := 0.4
	if rated >= 5 {
		conf = 0.7
	}
	return Recommendation{
		ID:         string(RecommendBreakCadence),
		Kind:       RecommendBreakCadence,
		Title:      fmt.Sprintf("Study in %d minute blocks with %d minute breaks", focus, rest),
		Reason:     reason,
		Confidence: conf,
		Hint:       model.PlanHint{Kind: model.HintBreakCadence, FocusMinutes: focus, BreakMinutes: rest},
	}
}

// Apply 复制原计划的请求并附加所选建议的提示，重新生成一个新计划
// ids 为空时应用全部建议
func (s *AdvisoryService) Apply(ctx context.Context, userID, planID string, ids []string) (*model.SavedPlan, error) {
	plan, err := s.Plans.GetPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	recs, err := s.Recommend(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var hints []model.PlanHint
	for _, r := range recs {
		if len(ids) == 0 || wanted[r.ID] || wanted[string(r.Kind)] {
			hints = append(hints, r.Hint)
		}
	}
	if len(hints) == 0 {
		return nil, NewValidationError(ErrValidation, FieldError{Field: "ids", Error: "no matching recommendation"})
	}

	exam := cloneExamData(plan.ExamData)
	exam.Hints = mergeHints(exam.Hints, hints)
	return s.Plans.CreatePlan(ctx, userID, exam)
}

func cloneExamData(e model.ExamPlanData) model.ExamPlanData {
	out := e
	out.Subjects = append([]string(nil), e.Subjects...)
	out.StudyTimeSlots = append([]string(nil), e.StudyTimeSlots...)
	out.Hints = append([]model.PlanHint(nil), e.Hints...)
	return out
}

// mergeHints 同类（extra_time 按科目）的提示以新值覆盖旧值
func mergeHints(existing, added []model.PlanHint) []model.PlanHint {
	key := func(h model.PlanHint) string {
		if h.Kind == model.HintExtraTime {
			return string(h.Kind) + ":" + strings.ToLower(h.Subject)
		}
		return string(h.Kind)
	}
	out := make([]model.PlanHint, 0, len(existing)+len(added))
	index := map[string]int{}
	for _, h := range append(existing, added...) {
		k := key(h)
		if i, ok := index[k]; ok {
			out[i] = h
			continue
		}
		index[k] = len(out)
		out = append(out, h)
	}
	return out
}

// Analytics 每个科目的完成情况、分数与学习时长
func (s *AdvisoryService) Analytics(ctx context.Context, userID, planID string) (*PlanAnalytics, error) {
	plan, err := s.Plans.GetPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	progress, err := s.Progress.GetProgress(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	stats := map[string]*SubjectStats{}
	scores := map[string][]int{}
	order := []string{}
	get := func(subject string) *SubjectStats {
		st, ok := stats[subject]
		if !ok {
			st = &SubjectStats{Subject: subject}
			stats[subject] = st
			order = append(order, subject)
		}
		return st
	}
	for _, sp := range plan.StudyPlan.SubjectPlans {
		get(sp.Subject)
	}
	for _, t := range plan.StudyPlan.DailyTasks {
		st := get(t.Subject)
		st.TasksAssigned++
		st.PlannedMinutes += t.Duration
		if t.Completed {
			st.TasksCompleted++
			if t.TimeSpent != nil {
				st.MinutesStudied += *t.TimeSpent
			} else {
				st.MinutesStudied += t.Duration
			}
			if t.Score != nil {
				scores[t.Subject] = append(scores[t.Subject], *t.Score)
			}
		}
	}

	subjects := make([]SubjectStats, 0, len(order))
	for _, name := range order {
		st := stats[name]
		if st.TasksAssigned > 0 {
			st.Completion = clampPercent(st.TasksCompleted * 100 / st.TasksAssigned)
		}
		if sc := scores[name]; len(sc) > 0 {
			sum := 0
			for _, v := range sc {
				sum += v
			}
			st.AverageScore = round2(float64(sum) / float64(len(sc)))
		}
		subjects = append(subjects, *st)
	}

	weekly := append([]model.WeeklySnapshot(nil), progress.WeeklyProgress...)
	sort.Slice(weekly, func(i, j int) bool { return weekly[i].Week < weekly[j].Week })
	if weekly == nil {
		weekly = []model.WeeklySnapshot{}
	}

	return &PlanAnalytics{
		PlanID:         plan.ID,
		Completion:     plan.Progress,
		TotalPoints:    progress.TotalPoints,
		CurrentStreak:  progress.CurrentStreak,
		LongestStreak:  progress.LongestStreak,
		BadgesEarned:   len(progress.Badges),
		DaysLeft:       plan.DaysLeft,
		Subjects:       subjects,
		WeeklyProgress: weekly,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
