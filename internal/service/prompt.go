package service

import (
	"fmt"
	"strings"
	"study_plan_backend/internal/config"
	"study_plan_backend/internal/model"
)

const planSystemPrompt = "You are an expert exam preparation coach. You design complete, structured study plans. " +
	"Respond with a single JSON object only, with no markdown and no commentary."

// planSchema 期望的输出结构，先给出结构再生成内容
const planSchema = `{
  "overview": "string",
  "revisionStrategy": "string",
  "examTips": ["string"],
  "motivationalQuotes": ["string"],
  "subjectPlans": [
    {
      "subject": "string (one of the requested subjects, spelled exactly as given)",
      "priority": "high | medium | low",
      "strategy": "string",
      "revisionSchedule": [{"week": 1, "focus": "string", "chapters": ["string"]}],
      "chapters": [
        {
          "chapterNumber": 1,
          "chapterName": "string",
          "importance": "high | medium | low",
          "estimatedHours": 4.5,
          "practiceQuestions": 20,
          "revisionTips": "string",
          "examStrategy": "string",
          "commonMistakes": ["string"],
          "topics": [
            {
              "topicName": "string",
              "importance": "critical | important | moderate",
              "estimatedMinutes": 45,
              "description": "string",
              "keyPoints": ["string"],
              "whatToStudy": ["string"],
              "howToStudy": ["string"],
              "practiceQuestions": ["string"],
              "memoryTricks": ["string"],
              "studyTips": ["string"]
            }
          ]
        }
      ]
    }
  ]
}`

// buildPlanPrompt 组装 schema-first 提示词：考试信息、天数预算、结构约束、偏好与提示
func buildPlanPrompt(exam model.ExamPlanData, totalDays int, cfg config.PlannerConfig) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Create a study plan for the exam %q on %s.\n", exam.ExamName, exam.ExamDate)
	if exam.ClassLevel != "" {
		fmt.Fprintf(&b, "Class / level: %s\n", exam.ClassLevel)
	}
	fmt.Fprintf(&b, "Days available: %d\n", totalDays)
	fmt.Fprintf(&b, "Daily study hours: %.1f\n", exam.DailyHours)
	fmt.Fprintf(&b, "Subjects: %s\n", strings.Join(requestedSubjects(exam), ", "))
	fmt.Fprintf(&b, "Preferred study time slots: %s\n", strings.Join(exam.StudyTimeSlots, ", "))
	if exam.WeakAreas != "" {
		fmt.Fprintf(&b, "Weak areas (give these more depth): %s\n", exam.WeakAreas)
	}
	if exam.StrongAreas != "" {
		fmt.Fprintf(&b, "Strong areas (keep these brief): %s\n", exam.StrongAreas)
	}

	b.WriteString("\nReturn JSON matching exactly this structure:\n")
	b.WriteString(planSchema)
	b.WriteString("\n\nStructural requirements:\n")
	fmt.Fprintf(&b, "- Include one entry in subjectPlans for every requested subject and no others.\n")
	fmt.Fprintf(&b, "- Each subject must have at least %d chapters with unique chapterNumber values starting at 1.\n", cfg.MinChapters)
	fmt.Fprintf(&b, "- Each chapter must have between %d and %d topics.\n", cfg.MinTopics, cfg.MaxTopics)
	b.WriteString("- Every topic must include keyPoints, whatToStudy, howToStudy, practiceQuestions and memoryTricks.\n")
	b.WriteString("- estimatedHours and estimatedMinutes must be positive numbers.\n")
	b.WriteString("- Do not include daily tasks or weekly goals, they are scheduled separately.\n")

	if d := preferenceDirectives(exam); len(d) > 0 {
		b.WriteString("\nPreferences:\n")
		for _, line := range d {
			b.WriteString("- " + line + "\n")
		}
	}
	if h := hintDirectives(exam.Hints); len(h) > 0 {
		b.WriteString("\nAdjustments requested from the student's recent performance:\n")
		for _, line := range h {
			b.WriteString("- " + line + "\n")
		}
	}
	return b.String()
}

func preferenceDirectives(exam model.ExamPlanData) []string {
	var out []string
	switch exam.DifficultyLevel {
	case model.DifficultyBasic:
		out = append(out, "Assume a beginner. Start from fundamentals and avoid advanced problems.")
	case model.DifficultyMedium:
		out = append(out, "Assume an intermediate student. Mix standard and moderately hard problems.")
	case model.DifficultyAdvanced:
		out = append(out, "Assume an advanced student. Emphasise challenging problems and edge cases.")
	}
	switch exam.ExplanationStyle {
	case model.ExplanationDetailed:
		out = append(out, "Write detailed descriptions with step by step guidance.")
	case model.ExplanationConcise:
		out = append(out, "Keep descriptions short and to the point.")
	case model.ExplanationExamFocused:
		out = append(out, "Focus on what is examined most often and how marks are awarded.")
	}
	switch exam.LearningStyle {
	case model.LearningVisual:
		out = append(out, "Suggest diagrams, mind maps and charts in howToStudy.")
	case model.LearningAuditory:
		out = append(out, "Suggest reading aloud, discussion and recorded explanations in howToStudy.")
	case model.LearningKinesthetic:
		out = append(out, "Suggest hands-on activities, experiments and worked problems in howToStudy.")
	case model.LearningReadingWrite:
		out = append(out, "Suggest note making, summaries and written practice in howToStudy.")
	}
	if exam.IncludeExamples {
		out = append(out, "Include a worked example in each topic description.")
	}
	if exam.IncludePractice {
		out = append(out, "Provide at least three practiceQuestions per topic.")
	}
	if exam.IncludeRevision {
		out = append(out, "Give every chapter revisionTips and a weekly revisionSchedule per subject.")
	}
	if exam.IncludeMotivation {
		out = append(out, "Include at least five motivationalQuotes.")
	}
	return out
}

func hintDirectives(hints []model.PlanHint) []string {
	out := make([]string, 0, len(hints))
	for _, h := range hints {
		switch h.Kind {
		case model.HintPreferredSlot:
			out = append(out, fmt.Sprintf("The student performs best in the %s slot; schedule demanding topics there.", h.TimeSlot))
		case model.HintExtraTime:
			out = append(out, fmt.Sprintf("Give %s about %.0f%% more depth and time.", h.Subject, (h.Weight-1)*100))
		case model.HintBreakCadence:
			out = append(out, fmt.Sprintf("Plan study in %d minute focus blocks with %d minute breaks.", h.FocusMinutes, h.BreakMinutes))
		}
	}
	return out
}
