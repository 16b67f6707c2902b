package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageRedis  = "redis"
	StorageMySQL  = "mysql"
	StorageMemory = "memory"
)

// 持久化键名
const (
	StudyPlansKeyPrefix = "study_plans_"
	ActivePlanKeyPrefix = "active_study_plan_"
	ProgressKeyPrefix   = "progress_"
)

// 分页
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)
