package repository

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/opencad/dispatchd/internal/model"
)

// defaultCodes seed the reference table on first run.
var defaultCodes = []*model.StatusCode{
	{Code: "10-4", Description: "Message Received/Acknowledged", Category: "Communication"},
	{Code: "10-20", Description: "Location", Category: "Information"},
	{Code: "10-28", Description: "Vehicle Information", Category: "Information"},
	{Code: "Code 1", Description: "Normal Response", Category: "Priority"},
	{Code: "Code 2", Description: "Urgent Response", Category: "Priority"},
	{Code: "Code 3", Description: "Emergency Response", Category: "Priority"},
	{Code: "10-6", Description: "Busy", Category: "Status"},
	{Code: "10-7", Description: "Out of Service", Category: "Status"},
	{Code: "10-8", Description: "In Service", Category: "Status"},
	{Code: "10-97", Description: "Arrived at Scene", Category: "Status"},
	{Code: "10-98", Description: "Finished Assignment", Category: "Status"},
}

// CodeFileRepository serves the static radio/status code table from a
// YAML file, reloading it when the file changes. The table is
// reference data only and is never broadcast.
type CodeFileRepository struct {
	codesFile string
	logger    *slog.Logger
	codes     []*model.StatusCode

	watcher *fsnotify.Watcher

	mx sync.RWMutex
}

func NewFileCodeRepo(codesFile string) *CodeFileRepository {
	r := &CodeFileRepository{
		logger:    slog.Default().With("logger", "CodeManager"),
		codesFile: codesFile,
	}

	if err := r.loadCodesFile(); err != nil {
		r.logger.Error("error loading codes file", slog.Any("error", err))
	}

	if len(r.codes) == 0 {
		r.logger.Info("no codes found - using defaults")
		r.codes = sortCodes(defaultCodes)
	}

	return r
}

func (r *CodeFileRepository) loadCodesFile() error {
	r.mx.Lock()
	defer r.mx.Unlock()

	if _, err := os.Lstat(r.codesFile); os.IsNotExist(err) {
		return r.writeDefaults()
	}

	dat, err := os.ReadFile(r.codesFile)
	if err != nil {
		return err
	}

	codes := make([]*model.StatusCode, 0)

	if err := yaml.Unmarshal(dat, &codes); err != nil {
		return err
	}

	r.codes = sortCodes(codes)

	return nil
}

func (r *CodeFileRepository) writeDefaults() error {
	dat, err := yaml.Marshal(defaultCodes)
	if err != nil {
		return err
	}

	if err := os.WriteFile(r.codesFile, dat, 0o644); err != nil {
		return err
	}

	r.codes = sortCodes(defaultCodes)

	return nil
}

func (r *CodeFileRepository) Start() error {
	var err error
	r.watcher, err = fsnotify.NewWatcher()

	if err != nil {
		return err
	}

	if err := r.watcher.Add(r.codesFile); err != nil {
		return err
	}

	go func() {
		for {
			select {
			case event, ok := <-r.watcher.Events:
				if !ok {
					return
				}

				r.logger.Debug(fmt.Sprintf("event: %v", event))

				if event.Has(fsnotify.Write) && event.Name == r.codesFile {
					r.logger.Info("codes file is modified, reloading")

					if err := r.loadCodesFile(); err != nil {
						r.logger.Error("error", slog.Any("error", err))
					}
				}
			case err, ok := <-r.watcher.Errors:
				if !ok {
					return
				}

				r.logger.Error("error", slog.Any("error", err))
			}
		}
	}()

	return nil
}

func (r *CodeFileRepository) Stop() {
	if r.watcher != nil {
		_ = r.watcher.Close()
	}
}

// Codes returns the table ordered by category, then code.
func (r *CodeFileRepository) Codes() []*model.StatusCode {
	r.mx.RLock()
	defer r.mx.RUnlock()

	res := make([]*model.StatusCode, len(r.codes))
	copy(res, r.codes)

	return res
}

func sortCodes(codes []*model.StatusCode) []*model.StatusCode {
	sort.SliceStable(codes, func(i, j int) bool {
		if codes[i].Category != codes[j].Category {
			return codes[i].Category < codes[j].Category
		}

		return codes[i].Code < codes[j].Code
	})

	return codes
}
