package audit

import (
	"database/sql"
	"time"

	"go.uber.org/zap"
)

type Service struct {
	db  *sql.DB
	log *zap.Logger
}

func New(db *sql.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log}
}

func (s *Service) Log(uid int64, action string, metadata string) {
	_, err := s.db.Exec(`
	INSERT INTO audit_logs(uid, action, metadata, created_at)
	VALUES (?, ?, ?, ?)
	`, uid, action, metadata, time.Now().Unix())

	if err != nil {
		s.log.Error("audit write failed",
			zap.Int64("uid", uid),
			zap.String("action", action),
			zap.Error(err))
	}
}

type Entry struct {
	ID        int64  `json:"id"`
	UID       int64  `json:"uid"`
	Action    string `json:"action"`
	Metadata  string `json:"metadata"`
	CreatedAt int64  `json:"created_at"`
}

func (s *Service) Recent(limit int) ([]Entry, error) {
	rows, err := s.db.Query(`
	SELECT id, uid, action, metadata, created_at
	FROM audit_logs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UID, &e.Action, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
