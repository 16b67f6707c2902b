package service

import (
	"fmt"
	"math"
	"strings"
	"study_plan_backend/internal/config"
	"study_plan_backend/internal/model"
	"study_plan_backend/internal/util"
	"time"
)

// Scheduler 把科目/章节/主题按轮转方式分配到每天
// 第 d 天的内容只由 (科目数, 章节数, 主题数, d) 决定
type Scheduler struct {
	HorizonDays      int
	MaxWeeks         int
	ExtensionMaxDays int
}

func NewScheduler(cfg config.PlannerConfig) *Scheduler {
	d := config.Defaults()
	s := &Scheduler{HorizonDays: cfg.HorizonDays, MaxWeeks: cfg.MaxWeeks, ExtensionMaxDays: cfg.ExtensionMaxDays}
	if s.HorizonDays <= 0 {
		s.HorizonDays = d.HorizonDays
	}
	if s.MaxWeeks <= 0 {
		s.MaxWeeks = d.MaxWeeks
	}
	if s.ExtensionMaxDays <= 0 {
		s.ExtensionMaxDays = d.ExtensionMaxDays
	}
	return s
}

// DaySlot 第 d 天分配到的下标与任务类型
type DaySlot struct {
	Subject int
	Chapter int
	Topic   int
	Type    model.TaskType
}

// SlotFor 计算第 d 天的分配；chapters(si) 与 topics(si, ci) 返回对应数量
func SlotFor(d, subjects int, chapters func(si int) int, topics func(si, ci int) int) DaySlot {
	si := d % subjects
	c := max(1, chapters(si))
	ci := (d / subjects) % c
	t := max(1, topics(si, ci))
	ti := (d / (subjects * c)) % t
	return DaySlot{Subject: si, Chapter: ci, Topic: ti, Type: dayType(d)}
}

func dayType(d int) model.TaskType {
	switch d % 7 {
	case 6:
		return model.TaskRevision
	case 5:
		return model.TaskPractice
	default:
		return model.TaskStudy
	}
}

// taskPriority 由章节和主题的重要程度推导，不单独指定
func taskPriority(ch model.ChapterInfo, topic model.TopicInfo) model.TaskPriority {
	switch {
	case ch.Importance == model.PriorityHigh:
		return model.TaskUrgent
	case topic.Importance == model.TopicCritical:
		return model.TaskImportant
	default:
		return model.TaskNormal
	}
}

// Schedule 生成首个排期窗口内的每日任务、周目标和里程碑
// 要求 plan 已经规范化（StartDate、TotalDaysAvailable 与科目树齐全）
func (s *Scheduler) Schedule(plan *model.StudyPlan, exam model.ExamPlanData) error {
	start, err := util.ParseDate(plan.StartDate, nil)
	if err != nil {
		return fmt.Errorf("parse plan start date: %w", err)
	}
	horizon := min(plan.TotalDaysAvailable, s.HorizonDays)
	plan.DailyTasks = s.materialize(plan, exam, start, 0, horizon)
	plan.ScheduledThrough = util.FormatDate(start.AddDate(0, 0, horizon-1))
	s.buildGoals(plan, start, horizon)
	return nil
}

// ScheduledDays 已排期的天数
func ScheduledDays(plan *model.StudyPlan) int {
	if plan.ScheduledThrough == "" {
		return 0
	}
	start, err1 := util.ParseDate(plan.StartDate, nil)
	through, err2 := util.ParseDate(plan.ScheduledThrough, nil)
	if err1 != nil || err2 != nil {
		return len(plan.DailyTasks)
	}
	return daysBetween(start, through) + 1
}

// Extend 把排期延长到 through（含），每次最多延长 ExtensionMaxDays 天，不超过考试日
// 返回新增的任务数
func (s *Scheduler) Extend(plan *model.StudyPlan, exam model.ExamPlanData, through time.Time) (int, error) {
	start, err := util.ParseDate(plan.StartDate, nil)
	if err != nil {
		return 0, fmt.Errorf("parse plan start date: %w", err)
	}
	from := ScheduledDays(plan)
	want := daysBetween(start, util.StartOfDay(through)) + 1
	to := min(want, plan.TotalDaysAvailable, from+s.ExtensionMaxDays)
	if to <= from {
		return 0, nil
	}

	tasks := s.materialize(plan, exam, start, from, to)
	plan.DailyTasks = append(plan.DailyTasks, tasks...)
	plan.ScheduledThrough = util.FormatDate(start.AddDate(0, 0, to-1))
	s.buildGoals(plan, start, to)
	return len(tasks), nil
}

func (s *Scheduler) materialize(plan *model.StudyPlan, exam model.ExamPlanData, start time.Time, from, to int) []model.DailyTask {
	if len(plan.SubjectPlans) == 0 || to <= from {
		return nil
	}
	tasks := make([]model.DailyTask, 0, to-from)
	for d := from; d < to; d++ {
		tasks = append(tasks, s.taskFor(plan, exam, start, d))
	}
	return tasks
}

func (s *Scheduler) taskFor(plan *model.StudyPlan, exam model.ExamPlanData, start time.Time, d int) model.DailyTask {
	subjects := plan.SubjectPlans
	slot := SlotFor(d, len(subjects),
		func(si int) int { return len(subjects[si].Chapters) },
		func(si, ci int) int { return len(subjects[si].Chapters[ci].Topics) },
	)

	sp := subjects[slot.Subject]
	var ch model.ChapterInfo
	if len(sp.Chapters) > 0 {
		ch = sp.Chapters[slot.Chapter]
	}
	var topic model.TopicInfo
	if len(ch.Topics) > 0 {
		topic = ch.Topics[slot.Topic]
	}

	date := start.AddDate(0, 0, d)
	return model.DailyTask{
		ID:                   fmt.Sprintf("task-%d", d+1),
		Date:                 util.FormatDate(date),
		Day:                  date.Weekday().String(),
		Subject:              sp.Subject,
		Chapter:              ch.ChapterName,
		Topic:                topic.TopicName,
		Duration:             taskDuration(plan.DailyStudyHours, sp.Subject, exam.Hints),
		Type:                 slot.Type,
		Priority:             taskPriority(ch, topic),
		Description:          taskDescription(slot.Type, sp.Subject, ch, topic, exam.Hints),
		DetailedInstructions: taskInstructions(slot.Type, ch, topic, exam),
	}
}

func taskDuration(dailyHours float64, subject string, hints []model.PlanHint) int {
	minutes := math.Round(dailyHours * 60)
	for _, h := range hints {
		if h.Kind == model.HintExtraTime && h.Weight > 0 && strings.EqualFold(strings.TrimSpace(h.Subject), subject) {
			minutes = math.Round(minutes * h.Weight)
		}
	}
	return max(15, int(minutes))
}

func taskDescription(kind model.TaskType, subject string, ch model.ChapterInfo, topic model.TopicInfo, hints []model.PlanHint) string {
	var desc string
	switch kind {
	case model.TaskRevision:
		desc = fmt.Sprintf("Revise %s: %s (%s)", subject, ch.ChapterName, topic.TopicName)
	case model.TaskPractice:
		desc = fmt.Sprintf("Practice %s questions on %s", subject, topic.TopicName)
	default:
		desc = fmt.Sprintf("Study %s: %s, chapter %d %s", subject, topic.TopicName, ch.ChapterNumber, ch.ChapterName)
	}
	for _, h := range hints {
		if h.Kind == model.HintPreferredSlot && h.TimeSlot != "" {
			desc += fmt.Sprintf(" [best in the %s]", h.TimeSlot)
			break
		}
	}
	return desc
}

func taskInstructions(kind model.TaskType, ch model.ChapterInfo, topic model.TopicInfo, exam model.ExamPlanData) []string {
	var out []string
	switch kind {
	case model.TaskRevision:
		out = append(out, "Recall the key points without notes, then check:")
		out = append(out, topic.KeyPoints...)
		if ch.RevisionTips != "" {
			out = append(out, ch.RevisionTips)
		}
	case model.TaskPractice:
		out = append(out, topic.PracticeQuestions...)
		if ch.PracticeQuestions > 0 {
			out = append(out, fmt.Sprintf("Attempt %d practice questions from %s.", ch.PracticeQuestions, ch.ChapterName))
		}
	default:
		out = append(out, topic.WhatToStudy...)
		out = append(out, topic.HowToStudy...)
		if exam.IncludeExamples {
			out = append(out, "Work through one solved example step by step.")
		}
	}
	if exam.IncludePractice && kind == model.TaskStudy && len(topic.PracticeQuestions) > 0 {
		out = append(out, topic.PracticeQuestions[0])
	}
	for _, h := range exam.Hints {
		if h.Kind == model.HintBreakCadence && h.FocusMinutes > 0 {
			out = append(out, fmt.Sprintf("Work in %d minute focus blocks with %d minute breaks.", h.FocusMinutes, h.BreakMinutes))
			break
		}
	}
	if len(out) == 0 {
		out = []string{"Study " + topic.TopicName}
	}
	return out
}

// buildGoals 按 7 天窗口划分周目标与里程碑，最多 MaxWeeks 周
func (s *Scheduler) buildGoals(plan *model.StudyPlan, start time.Time, scheduledDays int) {
	weeks := min(int(math.Ceil(float64(scheduledDays)/7)), s.MaxWeeks)
	increment := int(math.Ceil(100 / math.Ceil(float64(plan.TotalDaysAvailable)/7)))

	goals := make([]model.WeeklyGoal, 0, weeks)
	milestones := make([]model.Milestone, 0, weeks)
	for w := 1; w <= weeks; w++ {
		from := (w - 1) * 7
		to := min(from+7, scheduledDays)

		var subjects, chapters []string
		seenSubject := map[string]bool{}
		seenChapter := map[string]bool{}
		tasks := 0
		for _, t := range plan.DailyTasks {
			d, err := util.ParseDate(t.Date, nil)
			if err != nil {
				continue
			}
			idx := daysBetween(start, d)
			if idx < from || idx >= to {
				continue
			}
			tasks++
			if !seenSubject[t.Subject] {
				seenSubject[t.Subject] = true
				subjects = append(subjects, t.Subject)
			}
			key := t.Subject + ": " + t.Chapter
			if !seenChapter[key] {
				seenChapter[key] = true
				chapters = append(chapters, key)
			}
		}

		target := clampPercent(min(100, w*increment))
		goals = append(goals, model.WeeklyGoal{
			Week:             w,
			StartDate:        util.FormatDate(start.AddDate(0, 0, from)),
			EndDate:          util.FormatDate(start.AddDate(0, 0, to-1)),
			Subjects:         nonNil(subjects),
			TargetChapters:   nonNil(chapters),
			TargetCompletion: target,
			Focus:            fmt.Sprintf("Cover %d chapters across %s", len(chapters), strings.Join(subjects, ", ")),
			Assessment:       fmt.Sprintf("Self test on this week's chapters and reach %d%% of the plan", target),
		})
		milestones = append(milestones, model.Milestone{
			Week:        w,
			Title:       fmt.Sprintf("Week %d checkpoint", w),
			Description: fmt.Sprintf("Finish the %d tasks scheduled for week %d", tasks, w),
			Reward:      milestoneReward(w, weeks),
			Criteria: []string{
				fmt.Sprintf("Complete %d tasks", tasks),
				fmt.Sprintf("Reach %d%% overall completion", target),
			},
		})
	}
	plan.WeeklyGoals = goals
	plan.Milestones = milestones
}

func milestoneReward(week, weeks int) string {
	if week == weeks {
		return "Take a full day off before the final push"
	}
	if week%4 == 0 {
		return "Enjoy a free evening"
	}
	return "Treat yourself to something small"
}

func daysBetween(from, to time.Time) int {
	return int(math.Round(util.StartOfDay(to).Sub(util.StartOfDay(from)).Hours() / 24))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
