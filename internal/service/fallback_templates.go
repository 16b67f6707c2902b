package service

import (
	"fmt"
	"math"
	"strings"
	"study_plan_backend/internal/model"
)

type chapterSeed struct {
	Name       string
	Importance model.Priority
	Hours      float64
	Topics     []string
}

type subjectTemplate struct {
	Name     string
	Aliases  []string
	Priority model.Priority
	Strategy string
	Chapters []chapterSeed
}

// subjectTemplates 本地兜底模板，生成服务不可用或返回无法解析的内容时使用
var subjectTemplates = []subjectTemplate{
	{
		Name:     "Mathematics",
		Aliases:  []string{"math", "maths", "mathematics"},
		Priority: model.PriorityHigh,
		Strategy: "Build formulas into a single sheet, solve daily problem sets, and revisit wrong answers at the end of each week.",
		Chapters: []chapterSeed{
			{"Algebra and Equations", model.PriorityHigh, 6, []string{"Linear Equations", "Quadratic Equations", "Polynomials", "Inequalities", "Sequences and Series"}},
			{"Functions and Graphs", model.PriorityHigh, 5, []string{"Domain and Range", "Composite Functions", "Inverse Functions", "Graph Transformations", "Exponential and Logarithmic Functions"}},
			{"Trigonometry", model.PriorityMedium, 5, []string{"Trigonometric Ratios", "Identities", "Trigonometric Equations", "Heights and Distances", "Graphs of Trigonometric Functions"}},
			{"Coordinate Geometry", model.PriorityMedium, 5, []string{"Straight Lines", "Circles", "Parabola", "Ellipse and Hyperbola", "Distance and Section Formulas"}},
			{"Calculus: Differentiation", model.PriorityHigh, 6, []string{"Limits and Continuity", "Rules of Differentiation", "Chain Rule", "Applications of Derivatives", "Maxima and Minima"}},
			{"Calculus: Integration", model.PriorityHigh, 6, []string{"Indefinite Integrals", "Integration by Substitution", "Integration by Parts", "Definite Integrals", "Area Under Curves"}},
			{"Probability", model.PriorityMedium, 4, []string{"Sample Spaces and Events", "Conditional Probability", "Bayes Theorem", "Random Variables", "Binomial Distribution"}},
			{"Statistics", model.PriorityLow, 3, []string{"Measures of Central Tendency", "Measures of Dispersion", "Data Representation", "Correlation", "Regression Lines"}},
		},
	},
	{
		Name:     "Physics",
		Aliases:  []string{"physics", "phy"},
		Priority: model.PriorityHigh,
		Strategy: "Derive key equations yourself, draw a diagram for every numerical problem, and keep a units checklist.",
		Chapters: []chapterSeed{
			{"Kinematics", model.PriorityHigh, 5, []string{"Motion in a Straight Line", "Motion in a Plane", "Projectile Motion", "Relative Velocity", "Graphs of Motion"}},
			{"Laws of Motion", model.PriorityHigh, 5, []string{"Newton's Laws", "Friction", "Free Body Diagrams", "Circular Motion", "Momentum and Impulse"}},
			{"Work, Energy and Power", model.PriorityMedium, 4, []string{"Work Done by a Force", "Kinetic and Potential Energy", "Conservation of Energy", "Power", "Collisions"}},
			{"Gravitation", model.PriorityMedium, 3, []string{"Universal Law of Gravitation", "Acceleration due to Gravity", "Orbital Velocity", "Escape Velocity", "Kepler's Laws"}},
			{"Thermodynamics", model.PriorityMedium, 4, []string{"Heat and Temperature", "First Law of Thermodynamics", "Thermodynamic Processes", "Second Law and Heat Engines", "Kinetic Theory of Gases"}},
			{"Electrostatics", model.PriorityHigh, 5, []string{"Coulomb's Law", "Electric Field", "Gauss's Law", "Electric Potential", "Capacitors"}},
			{"Current Electricity", model.PriorityHigh, 5, []string{"Ohm's Law", "Resistors in Series and Parallel", "Kirchhoff's Laws", "Wheatstone Bridge", "Electrical Power"}},
			{"Optics", model.PriorityMedium, 4, []string{"Reflection", "Refraction", "Lenses and Mirrors", "Optical Instruments", "Wave Optics"}},
		},
	},
	{
		Name:     "Chemistry",
		Aliases:  []string{"chemistry", "chem"},
		Priority: model.PriorityHigh,
		Strategy: "Balance physical, organic and inorganic chemistry each week, and memorise reactions with named mechanisms.",
		Chapters: []chapterSeed{
			{"Atomic Structure", model.PriorityHigh, 4, []string{"Subatomic Particles", "Bohr Model", "Quantum Numbers", "Electronic Configuration", "Periodic Trends"}},
			{"Chemical Bonding", model.PriorityHigh, 5, []string{"Ionic Bonding", "Covalent Bonding", "VSEPR Theory", "Hybridisation", "Intermolecular Forces"}},
			{"Stoichiometry", model.PriorityMedium, 4, []string{"Mole Concept", "Empirical and Molecular Formulas", "Limiting Reagent", "Concentration Terms", "Titration Calculations"}},
			{"Chemical Equilibrium", model.PriorityMedium, 4, []string{"Law of Mass Action", "Le Chatelier's Principle", "Equilibrium Constants", "Acids and Bases", "Buffer Solutions"}},
			{"Thermochemistry", model.PriorityMedium, 3, []string{"Enthalpy Changes", "Hess's Law", "Bond Energies", "Entropy", "Gibbs Free Energy"}},
			{"Electrochemistry", model.PriorityMedium, 4, []string{"Redox Reactions", "Electrochemical Cells", "Electrode Potentials", "Electrolysis", "Faraday's Laws"}},
			{"Organic Chemistry Basics", model.PriorityHigh, 5, []string{"Nomenclature", "Isomerism", "Reaction Mechanisms", "Hydrocarbons", "Functional Groups"}},
			{"Periodic Table and Elements", model.PriorityLow, 3, []string{"s-Block Elements", "p-Block Elements", "d-Block Elements", "Coordination Compounds", "Metallurgy"}},
		},
	},
	{
		Name:     "Biology",
		Aliases:  []string{"biology", "bio"},
		Priority: model.PriorityHigh,
		Strategy: "Learn through labelled diagrams, connect processes into flowcharts, and revise terminology with flashcards.",
		Chapters: []chapterSeed{
			{"Cell Biology", model.PriorityHigh, 5, []string{"Cell Structure", "Cell Organelles", "Cell Membrane Transport", "Cell Division: Mitosis", "Cell Division: Meiosis"}},
			{"Genetics", model.PriorityHigh, 6, []string{"Mendelian Inheritance", "Chromosomal Theory", "DNA Structure", "Gene Expression", "Mutations"}},
			{"Human Physiology", model.PriorityHigh, 6, []string{"Digestive System", "Respiratory System", "Circulatory System", "Nervous System", "Excretory System"}},
			{"Plant Physiology", model.PriorityMedium, 4, []string{"Photosynthesis", "Respiration in Plants", "Transport in Plants", "Plant Hormones", "Mineral Nutrition"}},
			{"Ecology", model.PriorityMedium, 3, []string{"Ecosystems", "Food Chains and Webs", "Population Ecology", "Biodiversity", "Environmental Issues"}},
			{"Evolution", model.PriorityMedium, 3, []string{"Origin of Life", "Natural Selection", "Evidence for Evolution", "Speciation", "Human Evolution"}},
			{"Reproduction", model.PriorityMedium, 4, []string{"Asexual Reproduction", "Sexual Reproduction in Plants", "Human Reproduction", "Reproductive Health", "Embryonic Development"}},
			{"Biotechnology", model.PriorityLow, 3, []string{"Recombinant DNA", "PCR and Gel Electrophoresis", "Genetic Engineering Applications", "Biotechnology in Medicine", "Ethical Issues"}},
		},
	},
	{
		Name:     "History",
		Aliases:  []string{"history", "world history"},
		Priority: model.PriorityMedium,
		Strategy: "Build a timeline for each period, practise source analysis, and write one structured essay answer per week.",
		Chapters: []chapterSeed{
			{"Ancient Civilizations", model.PriorityMedium, 4, []string{"Mesopotamia", "Ancient Egypt", "Indus Valley Civilization", "Ancient China", "Classical Greece and Rome"}},
			{"Medieval World", model.PriorityLow, 3, []string{"Feudalism", "The Byzantine Empire", "Islamic Golden Age", "The Crusades", "Medieval Trade Routes"}},
			{"Renaissance and Reformation", model.PriorityMedium, 3, []string{"Causes of the Renaissance", "Art and Science", "The Printing Press", "Protestant Reformation", "Counter-Reformation"}},
			{"Age of Revolutions", model.PriorityHigh, 5, []string{"The American Revolution", "The French Revolution", "The Industrial Revolution", "Latin American Independence", "Revolutions of 1848"}},
			{"Colonialism and Imperialism", model.PriorityHigh, 4, []string{"Motives for Imperialism", "Scramble for Africa", "Colonial Rule in Asia", "Resistance Movements", "Economic Impact of Colonialism"}},
			{"World War I", model.PriorityHigh, 4, []string{"Causes of World War I", "Major Battles", "The Home Front", "Treaty of Versailles", "League of Nations"}},
			{"World War II", model.PriorityHigh, 5, []string{"Rise of Fascism", "Course of the War", "The Holocaust", "End of the War", "Formation of the United Nations"}},
			{"Cold War and Decolonisation", model.PriorityMedium, 4, []string{"Origins of the Cold War", "Arms Race", "Decolonisation in Asia and Africa", "Collapse of the Soviet Union", "Globalisation"}},
		},
	},
	{
		Name:     "English",
		Aliases:  []string{"english", "english language", "english literature"},
		Priority: model.PriorityMedium,
		Strategy: "Read daily, practise timed writing tasks, and keep a vocabulary journal with example sentences.",
		Chapters: []chapterSeed{
			{"Reading Comprehension", model.PriorityHigh, 4, []string{"Identifying Main Ideas", "Inference", "Author's Purpose and Tone", "Vocabulary in Context", "Summarising Passages"}},
			{"Grammar", model.PriorityHigh, 5, []string{"Tenses", "Subject-Verb Agreement", "Active and Passive Voice", "Direct and Indirect Speech", "Clauses and Conjunctions"}},
			{"Writing Skills", model.PriorityHigh, 5, []string{"Essay Structure", "Formal Letters", "Report Writing", "Argumentative Writing", "Editing and Proofreading"}},
			{"Literature: Prose", model.PriorityMedium, 4, []string{"Plot Analysis", "Characterisation", "Themes", "Narrative Techniques", "Comparing Texts"}},
			{"Literature: Poetry", model.PriorityMedium, 3, []string{"Poetic Devices", "Imagery", "Meter and Rhyme", "Interpreting Themes", "Unseen Poetry"}},
			{"Literature: Drama", model.PriorityLow, 3, []string{"Dramatic Structure", "Dialogue and Soliloquy", "Stagecraft", "Conflict", "Character Motivation"}},
		},
	},
	{
		Name:     "Computer Science",
		Aliases:  []string{"computer science", "cs", "computers", "informatics"},
		Priority: model.PriorityMedium,
		Strategy: "Write code for every concept, trace algorithms by hand, and solve past paper questions under time limits.",
		Chapters: []chapterSeed{
			{"Programming Fundamentals", model.PriorityHigh, 5, []string{"Variables and Data Types", "Control Flow", "Functions", "Recursion", "Error Handling"}},
			{"Data Structures", model.PriorityHigh, 6, []string{"Arrays and Lists", "Stacks and Queues", "Linked Lists", "Trees", "Hash Tables"}},
			{"Algorithms", model.PriorityHigh, 6, []string{"Searching", "Sorting", "Complexity Analysis", "Greedy Algorithms", "Dynamic Programming"}},
			{"Computer Systems", model.PriorityMedium, 4, []string{"Number Systems", "Boolean Logic", "CPU Architecture", "Memory Hierarchy", "Operating Systems"}},
			{"Networks", model.PriorityMedium, 3, []string{"Network Models", "IP Addressing", "Protocols", "Network Security", "The Internet"}},
			{"Databases", model.PriorityLow, 3, []string{"Relational Model", "SQL Queries", "Normalisation", "Transactions", "Indexing"}},
		},
	},
	{
		Name:     "Economics",
		Aliases:  []string{"economics", "econ"},
		Priority: model.PriorityMedium,
		Strategy: "Draw and label every diagram from memory, and link each theory to a current real world example.",
		Chapters: []chapterSeed{
			{"Basic Economic Problem", model.PriorityMedium, 3, []string{"Scarcity and Choice", "Opportunity Cost", "Production Possibility Curve", "Economic Systems", "Factors of Production"}},
			{"Demand and Supply", model.PriorityHigh, 5, []string{"Law of Demand", "Law of Supply", "Market Equilibrium", "Elasticity of Demand", "Price Controls"}},
			{"Market Structures", model.PriorityHigh, 4, []string{"Perfect Competition", "Monopoly", "Monopolistic Competition", "Oligopoly", "Market Failure"}},
			{"National Income", model.PriorityHigh, 4, []string{"GDP and GNP", "Measuring National Income", "Circular Flow", "Economic Growth", "Business Cycles"}},
			{"Money and Banking", model.PriorityMedium, 4, []string{"Functions of Money", "Central Banking", "Monetary Policy", "Inflation", "Interest Rates"}},
			{"International Trade", model.PriorityLow, 3, []string{"Comparative Advantage", "Balance of Payments", "Exchange Rates", "Trade Barriers", "Globalisation"}},
		},
	},
	{
		Name:     "Geography",
		Aliases:  []string{"geography", "geo"},
		Priority: model.PriorityMedium,
		Strategy: "Practise map work daily, learn case studies for each theme, and sketch annotated diagrams.",
		Chapters: []chapterSeed{
			{"Physical Geography", model.PriorityHigh, 5, []string{"Plate Tectonics", "Landforms", "Weathering and Erosion", "Rivers", "Coasts"}},
			{"Climate and Weather", model.PriorityHigh, 4, []string{"Atmosphere Structure", "Weather Systems", "Climate Zones", "Climate Change", "Natural Hazards"}},
			{"Population Geography", model.PriorityMedium, 3, []string{"Population Distribution", "Population Growth", "Migration", "Demographic Transition", "Urbanisation"}},
			{"Economic Geography", model.PriorityMedium, 4, []string{"Agriculture", "Industry", "Energy Resources", "Transport Networks", "Tourism"}},
			{"Map Skills", model.PriorityMedium, 3, []string{"Scale and Direction", "Contours", "Grid References", "Map Interpretation", "GIS Basics"}},
		},
	},
}

var templateIndex = buildTemplateIndex()

func buildTemplateIndex() map[string]*subjectTemplate {
	idx := make(map[string]*subjectTemplate)
	for i := range subjectTemplates {
		t := &subjectTemplates[i]
		idx[subjectKey(t.Name)] = t
		for _, a := range t.Aliases {
			idx[subjectKey(a)] = t
		}
	}
	return idx
}

func subjectKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// lookupTemplate 按科目名称查找模板，不区分大小写并支持别名
func lookupTemplate(subject string) (*subjectTemplate, bool) {
	t, ok := templateIndex[subjectKey(subject)]
	return t, ok
}

// templateSubjectPlan 由模板生成科目计划；未知科目得到一个通用章节
func templateSubjectPlan(subject string) model.SubjectPlan {
	tpl, ok := lookupTemplate(subject)
	if !ok {
		return genericSubjectPlan(subject)
	}
	chapters := make([]model.ChapterInfo, len(tpl.Chapters))
	for i, seed := range tpl.Chapters {
		chapters[i] = seedChapter(subject, i+1, seed)
	}
	return model.SubjectPlan{
		Subject:  subject,
		Priority: tpl.Priority,
		Chapters: chapters,
		Strategy: tpl.Strategy,
	}
}

func genericSubjectPlan(subject string) model.SubjectPlan {
	seed := chapterSeed{
		Name:       subject + " Fundamentals",
		Importance: model.PriorityMedium,
		Hours:      4,
		Topics:     []string{"Core Concepts of " + subject},
	}
	return model.SubjectPlan{
		Subject:  subject,
		Priority: model.PriorityMedium,
		Chapters: []model.ChapterInfo{seedChapter(subject, 1, seed)},
		Strategy: defaultStrategy(subject),
	}
}

func seedChapter(subject string, number int, seed chapterSeed) model.ChapterInfo {
	minutes := int(math.Round(seed.Hours * 60 / float64(len(seed.Topics))))
	topics := make([]model.TopicInfo, len(seed.Topics))
	for i, name := range seed.Topics {
		importance := model.TopicModerate
		if i == 0 {
			importance = model.TopicImportant
			if seed.Importance == model.PriorityHigh {
				importance = model.TopicCritical
			}
		}
		topics[i] = defaultTopic(subject, seed.Name, name, importance, minutes)
	}
	return model.ChapterInfo{
		ChapterNumber:     number,
		ChapterName:       seed.Name,
		Importance:        seed.Importance,
		EstimatedHours:    seed.Hours,
		Topics:            topics,
		PracticeQuestions: 5 * len(seed.Topics),
		RevisionTips:      fmt.Sprintf("Summarise %s on one page and test yourself on it without notes.", seed.Name),
		ExamStrategy:      fmt.Sprintf("Attempt %s questions you are confident about first and keep an eye on the time.", seed.Name),
		CommonMistakes:    []string{"Skipping steps in working", "Confusing similar terms in " + seed.Name},
	}
}

func defaultTopic(subject, chapter, topic string, importance model.TopicImportance, minutes int) model.TopicInfo {
	if minutes <= 0 {
		minutes = 30
	}
	return model.TopicInfo{
		TopicName:        topic,
		Importance:       importance,
		EstimatedMinutes: minutes,
		Description:      fmt.Sprintf("Understand %s as part of %s in %s.", topic, chapter, subject),
		KeyPoints:        defaultKeyPoints(topic),
		WhatToStudy:      defaultWhatToStudy(topic),
		HowToStudy:       defaultHowToStudy(),
		PracticeQuestions: []string{
			fmt.Sprintf("Explain %s in your own words.", topic),
			fmt.Sprintf("Solve two exam-style questions on %s.", topic),
		},
		MemoryTricks: []string{fmt.Sprintf("Create a short acronym or mind map for %s.", topic)},
		StudyTips:    defaultStudyTips(),
	}
}

func defaultKeyPoints(topic string) []string {
	return []string{
		fmt.Sprintf("Definitions and core ideas of %s", topic),
		fmt.Sprintf("Typical exam questions on %s", topic),
	}
}

func defaultWhatToStudy(topic string) []string {
	return []string{
		fmt.Sprintf("Read the textbook section on %s", topic),
		"Note down key terms and formulas",
		"Work through the solved examples",
	}
}

func defaultHowToStudy() []string {
	return []string{"Active recall", "Spaced repetition", "Practice under timed conditions"}
}

func defaultStudyTips() []string {
	return []string{"Study in focused blocks with short breaks", "Review your notes within 24 hours"}
}

func defaultStrategy(subject string) string {
	return fmt.Sprintf("Cover the core of %s first, then practise questions and revise weak chapters weekly.", subject)
}

var defaultExamTips = []string{
	"Read every question carefully before answering.",
	"Plan your time per section and stick to it.",
	"Leave a few minutes at the end to review your answers.",
	"Sleep well the night before the exam.",
}

var defaultQuotes = []string{
	"Success is the sum of small efforts repeated day in and day out.",
	"The expert in anything was once a beginner.",
	"Don't watch the clock; do what it does. Keep going.",
}

const defaultRevisionStrategy = "Revise each chapter within a week of studying it, use every seventh day for cumulative revision, and finish with full-length practice papers."

// fallbackPlan 完全由本地模板构建计划，结构与正常生成的计划一致
func fallbackPlan(exam model.ExamPlanData) model.StudyPlan {
	subjects := make([]model.SubjectPlan, 0, len(exam.Subjects))
	for _, s := range requestedSubjects(exam) {
		subjects = append(subjects, templateSubjectPlan(s))
	}
	return model.StudyPlan{SubjectPlans: subjects}
}
