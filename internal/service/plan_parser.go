package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"study_plan_backend/internal/config"
	"study_plan_backend/internal/model"
)

// extractJSON 从生成结果中取出 JSON 对象，兼容 ```json 代码块和前后夹带说明文字
func extractJSON(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+3:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			text = strings.TrimSpace(rest[:end])
		}
	}
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// parsePlan 严格解析计划结构，至少要有一个带章节的科目
func parsePlan(text string) (*model.StudyPlan, error) {
	raw, ok := extractJSON(text)
	if !ok {
		return nil, &GenerationParseError{Reason: "no JSON object in response"}
	}

	var plan model.StudyPlan
	if err := json.NewDecoder(bytes.NewReader([]byte(raw))).Decode(&plan); err != nil {
		return nil, &GenerationParseError{Reason: "decode study plan", Err: err}
	}

	if len(plan.SubjectPlans) == 0 {
		// 部分模型会把结果包在 {"studyPlan": {...}} 中
		var envelope struct {
			StudyPlan *model.StudyPlan `json:"studyPlan"`
		}
		if err := json.Unmarshal([]byte(raw), &envelope); err == nil && envelope.StudyPlan != nil {
			plan = *envelope.StudyPlan
		}
	}

	for _, sp := range plan.SubjectPlans {
		if strings.TrimSpace(sp.Subject) != "" && len(sp.Chapters) > 0 {
			return &plan, nil
		}
	}
	return nil, &GenerationParseError{Reason: "no subject with chapters"}
}

// requestedSubjects 去掉首尾空白后的科目列表，按请求顺序
func requestedSubjects(exam model.ExamPlanData) []string {
	out := make([]string, 0, len(exam.Subjects))
	for _, s := range exam.Subjects {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// planNormalizer 补齐缺省字段并把数值限制在合法范围内
// 对已规范化的计划再次执行不会产生任何变化
type planNormalizer struct {
	cfg config.PlannerConfig
}

// normalize 原地规范化；每日任务、周目标与里程碑由排期器重新生成
func (n planNormalizer) normalize(plan *model.StudyPlan, exam model.ExamPlanData, startDate string, totalDays int) {
	plan.StartDate = startDate
	plan.TotalDaysAvailable = max(1, totalDays)
	plan.DailyStudyHours = clampHours(exam.DailyHours)

	byName := make(map[string]model.SubjectPlan, len(plan.SubjectPlans))
	for _, sp := range plan.SubjectPlans {
		key := canonicalSubject(sp.Subject)
		if _, dup := byName[key]; !dup && key != "" {
			byName[key] = sp
		}
	}

	weeks := n.revisionWeeks(plan.TotalDaysAvailable)
	subjects := make([]model.SubjectPlan, 0, len(exam.Subjects))
	for _, name := range requestedSubjects(exam) {
		sp, ok := byName[canonicalSubject(name)]
		if !ok {
			sp = templateSubjectPlan(name)
		}
		sp.Subject = name
		n.normalizeSubject(&sp, weeks)
		subjects = append(subjects, sp)
	}
	plan.SubjectPlans = subjects

	if strings.TrimSpace(plan.Overview) == "" {
		plan.Overview = fmt.Sprintf("A %d-day plan for %s covering %s at %.1f hours per day.",
			plan.TotalDaysAvailable, exam.ExamName, strings.Join(requestedSubjects(exam), ", "), plan.DailyStudyHours)
	}
	if strings.TrimSpace(plan.RevisionStrategy) == "" {
		plan.RevisionStrategy = defaultRevisionStrategy
	}
	plan.ExamTips = nonEmptyStrings(plan.ExamTips, defaultExamTips)
	plan.MotivationalQuotes = nonEmptyStrings(plan.MotivationalQuotes, defaultQuotes)

	plan.DailyTasks = nil
	plan.WeeklyGoals = nil
	plan.Milestones = nil
	plan.ScheduledThrough = ""
}

// canonicalSubject 别名归一，例如 Maths 和 Mathematics 视为同一科目
func canonicalSubject(name string) string {
	if t, ok := lookupTemplate(name); ok {
		return subjectKey(t.Name)
	}
	return subjectKey(name)
}

func (n planNormalizer) revisionWeeks(totalDays int) int {
	weeks := int(math.Ceil(float64(totalDays) / 7))
	maxWeeks := n.cfg.MaxWeeks
	if maxWeeks <= 0 {
		maxWeeks = config.Defaults().MaxWeeks
	}
	return min(max(1, weeks), maxWeeks)
}

func (n planNormalizer) normalizeSubject(sp *model.SubjectPlan, weeks int) {
	sp.Priority = normalizePriority(sp.Priority)
	if strings.TrimSpace(sp.Strategy) == "" {
		sp.Strategy = defaultStrategy(sp.Subject)
	}

	chapters := make([]model.ChapterInfo, 0, len(sp.Chapters))
	for _, ch := range sp.Chapters {
		if strings.TrimSpace(ch.ChapterName) == "" && len(ch.Topics) == 0 {
			continue
		}
		chapters = append(chapters, ch)
	}
	if len(chapters) == 0 {
		chapters = templateSubjectPlan(sp.Subject).Chapters
	}
	renumberChapters(chapters)
	for i := range chapters {
		normalizeChapter(sp.Subject, &chapters[i])
	}
	sp.Chapters = chapters

	if len(sp.RevisionSchedule) == 0 {
		sp.RevisionSchedule = buildRevisionSchedule(chapters, weeks)
	}
	for i := range sp.RevisionSchedule {
		slot := &sp.RevisionSchedule[i]
		slot.Week = max(1, slot.Week)
		if strings.TrimSpace(slot.Focus) == "" {
			slot.Focus = "Revise " + sp.Subject
		}
		if slot.Chapters == nil {
			slot.Chapters = []string{}
		}
	}
}

// renumberChapters 章节号存在重复或非正数时按顺序重新编号
func renumberChapters(chapters []model.ChapterInfo) {
	seen := make(map[int]bool, len(chapters))
	valid := true
	for _, ch := range chapters {
		if ch.ChapterNumber <= 0 || seen[ch.ChapterNumber] {
			valid = false
			break
		}
		seen[ch.ChapterNumber] = true
	}
	if valid {
		return
	}
	for i := range chapters {
		chapters[i].ChapterNumber = i + 1
	}
}

func normalizeChapter(subject string, ch *model.ChapterInfo) {
	if strings.TrimSpace(ch.ChapterName) == "" {
		ch.ChapterName = fmt.Sprintf("Chapter %d", ch.ChapterNumber)
	}
	ch.Importance = normalizePriority(ch.Importance)
	if ch.PracticeQuestions < 0 {
		ch.PracticeQuestions = 0
	}

	if len(ch.Topics) == 0 {
		ch.Topics = []model.TopicInfo{defaultTopic(subject, ch.ChapterName, ch.ChapterName+" Essentials", model.TopicImportant, 30)}
	}
	totalMinutes := 0
	for i := range ch.Topics {
		normalizeTopic(subject, ch.ChapterName, i, &ch.Topics[i])
		totalMinutes += ch.Topics[i].EstimatedMinutes
	}
	if ch.EstimatedHours <= 0 || math.IsNaN(ch.EstimatedHours) || math.IsInf(ch.EstimatedHours, 0) {
		ch.EstimatedHours = math.Round(float64(totalMinutes)/6) / 10
		if ch.EstimatedHours <= 0 {
			ch.EstimatedHours = 0.5
		}
	}
}

func normalizeTopic(subject, chapter string, idx int, t *model.TopicInfo) {
	if strings.TrimSpace(t.TopicName) == "" {
		t.TopicName = fmt.Sprintf("%s Topic %d", chapter, idx+1)
	}
	t.Importance = normalizeTopicImportance(t.Importance)
	if t.EstimatedMinutes <= 0 {
		t.EstimatedMinutes = 30
	}
	def := defaultTopic(subject, chapter, t.TopicName, t.Importance, t.EstimatedMinutes)
	if strings.TrimSpace(t.Description) == "" {
		t.Description = def.Description
	}
	t.KeyPoints = nonEmptyStrings(t.KeyPoints, def.KeyPoints)
	t.WhatToStudy = nonEmptyStrings(t.WhatToStudy, def.WhatToStudy)
	t.HowToStudy = nonEmptyStrings(t.HowToStudy, def.HowToStudy)
	t.PracticeQuestions = nonEmptyStrings(t.PracticeQuestions, def.PracticeQuestions)
	t.MemoryTricks = nonEmptyStrings(t.MemoryTricks, def.MemoryTricks)
	t.StudyTips = nonEmptyStrings(t.StudyTips, def.StudyTips)
}

// buildRevisionSchedule 把章节平均分配到每周的复习时段
func buildRevisionSchedule(chapters []model.ChapterInfo, weeks int) []model.RevisionSlot {
	perWeek := int(math.Ceil(float64(len(chapters)) / float64(weeks)))
	slots := make([]model.RevisionSlot, 0, weeks)
	for w := 0; w < weeks; w++ {
		from := w * perWeek
		if from >= len(chapters) {
			break
		}
		to := min(from+perWeek, len(chapters))
		names := make([]string, 0, to-from)
		for _, ch := range chapters[from:to] {
			names = append(names, ch.ChapterName)
		}
		slots = append(slots, model.RevisionSlot{
			Week:     w + 1,
			Focus:    "Revise " + strings.Join(names, ", "),
			Chapters: names,
		})
	}
	return slots
}

func normalizePriority(p model.Priority) model.Priority {
	switch model.Priority(strings.ToLower(strings.TrimSpace(string(p)))) {
	case model.PriorityHigh:
		return model.PriorityHigh
	case model.PriorityLow:
		return model.PriorityLow
	default:
		return model.PriorityMedium
	}
}

func normalizeTopicImportance(i model.TopicImportance) model.TopicImportance {
	switch model.TopicImportance(strings.ToLower(strings.TrimSpace(string(i)))) {
	case model.TopicCritical:
		return model.TopicCritical
	case model.TopicImportant:
		return model.TopicImportant
	default:
		return model.TopicModerate
	}
}

// nonEmptyStrings 去掉空白项，结果为空时返回默认值的副本
func nonEmptyStrings(in, def []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		out = append(out, def...)
	}
	return out
}

func clampHours(h float64) float64 {
	if h <= 0 || math.IsNaN(h) {
		return 1
	}
	return math.Min(h, 24)
}

func clampPercent(p int) int {
	return min(100, max(0, p))
}
