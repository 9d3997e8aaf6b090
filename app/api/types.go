package api

import (
	"github.com/lysyi3m/charity-comb/app/database"
	"github.com/lysyi3m/charity-comb/app/tasks"
)

type Handler struct {
	feedPath  string
	backend   database.Backend
	version   string
	scheduler tasks.TaskSchedulerInterface
}
