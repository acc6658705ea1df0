// Package state persists the sync snapshot between runs. The state file is
// the sole record of which calendar events this tool owns; it is written
// after a successful pass, plus a best-effort write when a run dies mid-apply
// so events already created remotely are not re-created on the retry. An
// unreadable file degrades to an empty state so a fresh run can never delete
// anything spuriously.
package state

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	appLog "shiftsync/internal/log"
	"shiftsync/internal/model"
)

// fileShape is the on-disk JSON layout.
type fileShape struct {
	LastRun         *string      `json:"last_run"`
	SyncedShifts    []shiftShape `json:"synced_shifts"`
	PickedShifts    []shiftShape `json:"picked_shifts"`
	ScheduledShifts []shiftShape `json:"scheduled_shifts"`
}

type shiftShape struct {
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Assignment string `json:"assignment"`
	Label      string `json:"label"`
	EventID    string `json:"event_id"`
}

// Load reads the state file. A missing file or a file that fails to parse
// yields an empty state rather than an error.
func Load(path string) *model.SyncState {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			appLog.Info("state: no existing state file, starting fresh", "path", path)
		} else {
			appLog.Warn("state: unreadable state file, starting fresh", "path", path, "err", err)
		}
		return &model.SyncState{}
	}

	var raw fileShape
	if err := json.Unmarshal(data, &raw); err != nil {
		appLog.Warn("state: corrupt state file, starting fresh", "path", path, "err", err)
		return &model.SyncState{}
	}

	st, err := fromFileShape(raw)
	if err != nil {
		appLog.Warn("state: invalid state file contents, starting fresh", "path", path, "err", err)
		return &model.SyncState{}
	}

	appLog.Info("state: loaded",
		"open", len(st.Open), "picked", len(st.Picked), "scheduled", len(st.Scheduled))
	return st
}

// Save writes the state atomically (temp file + rename) with 0600 perms.
func Save(path string, st *model.SyncState) error {
	raw := toFileShape(st)

	data, err := json.MarshalIndent(&raw, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".shiftsync-state-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	appLog.Info("state: saved",
		"open", len(st.Open), "picked", len(st.Picked), "scheduled", len(st.Scheduled))
	return nil
}

func toFileShape(st *model.SyncState) fileShape {
	var raw fileShape
	if st.LastRun != nil {
		s := st.LastRun.UTC().Format(time.RFC3339)
		raw.LastRun = &s
	}
	raw.SyncedShifts = shiftsToShape(st.Open)
	raw.PickedShifts = shiftsToShape(st.Picked)
	raw.ScheduledShifts = shiftsToShape(st.Scheduled)
	return raw
}

func fromFileShape(raw fileShape) (*model.SyncState, error) {
	st := &model.SyncState{}

	if raw.LastRun != nil && *raw.LastRun != "" {
		t, err := time.Parse(time.RFC3339, *raw.LastRun)
		if err != nil {
			return nil, err
		}
		st.LastRun = &t
	}

	var err error
	if st.Open, err = shiftsFromShape(raw.SyncedShifts); err != nil {
		return nil, err
	}
	if st.Picked, err = shiftsFromShape(raw.PickedShifts); err != nil {
		return nil, err
	}
	if st.Scheduled, err = shiftsFromShape(raw.ScheduledShifts); err != nil {
		return nil, err
	}
	return st, nil
}

func shiftsToShape(shifts []model.SyncedShift) []shiftShape {
	out := make([]shiftShape, 0, len(shifts))
	for _, s := range shifts {
		out = append(out, shiftShape{
			Date:       s.Date,
			StartTime:  s.Start.Format(model.KeyTimeLayout),
			EndTime:    s.End.Format(model.KeyTimeLayout),
			Assignment: s.Assignment,
			Label:      s.Label,
			EventID:    s.EventID,
		})
	}
	return out
}

func shiftsFromShape(raw []shiftShape) ([]model.SyncedShift, error) {
	out := make([]model.SyncedShift, 0, len(raw))
	for _, r := range raw {
		start, err := time.Parse(model.KeyTimeLayout, r.StartTime)
		if err != nil {
			return nil, err
		}
		end, err := time.Parse(model.KeyTimeLayout, r.EndTime)
		if err != nil {
			return nil, err
		}
		out = append(out, model.SyncedShift{
			CandidateShift: model.CandidateShift{
				Date:       r.Date,
				Start:      start,
				End:        end,
				Assignment: r.Assignment,
				Label:      r.Label,
			},
			EventID: r.EventID,
		})
	}
	return out, nil
}
