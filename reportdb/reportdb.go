// Package reportdb stores generated diagnostic reports in an embedded
// BoltDB database so operators can review past allocation failures.
package reportdb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"
	"github.com/labfleet/labfleet/config"
)

// ReportBucket maps report ID -> Report struct
var ReportBucket = []byte("reports")

// LatestBucket maps job ID -> ID of the most recent report for that job
var LatestBucket = []byte("reports-latest")

// Report is one persisted diagnosis record.
type Report struct {
	ID        string    `json:"id"`
	JobID     string    `json:"jobId"`
	CreatedAt time.Time `json:"createdAt"`
	// Perfect records whether some lab scored the maximum; allocation
	// failures with a perfect lab point at infrastructure, not the job.
	Perfect bool   `json:"perfect"`
	Text    string `json:"text"`
}

// DB stores reports in a BoltDB key-value database.
type DB struct {
	db *bolt.DB
}

// Open opens the database at the configured path, creating it and the
// required buckets as needed.
func Open(conf config.ReportDB) (*DB, error) {
	os.MkdirAll(filepath.Dir(conf.Path), 0700)
	db, err := bolt.Open(conf.Path, 0600, &bolt.Options{
		Timeout: time.Second * 5,
	})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(ReportBucket) == nil {
			if _, err := tx.CreateBucket(ReportBucket); err != nil {
				return err
			}
		}
		if tx.Bucket(LatestBucket) == nil {
			if _, err := tx.CreateBucket(LatestBucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &DB{db: db}, nil
}

// PutReport stores a report and marks it as the latest for its job.
func (r *DB) PutReport(rep *Report) error {
	b, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("error marshaling report: %v", err)
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(ReportBucket).Put([]byte(rep.ID), b); err != nil {
			return err
		}
		return tx.Bucket(LatestBucket).Put([]byte(rep.JobID), []byte(rep.ID))
	})
}

// GetReport returns the report with the given ID, or nil if not found.
func (r *DB) GetReport(id string) (*Report, error) {
	var rep *Report
	err := r.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(ReportBucket).Get([]byte(id))
		if b == nil {
			return nil
		}
		rep = &Report{}
		return json.Unmarshal(b, rep)
	})
	return rep, err
}

// LastReport returns the most recent report for the given job ID,
// or nil if the job has none.
func (r *DB) LastReport(jobID string) (*Report, error) {
	var rep *Report
	err := r.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(LatestBucket).Get([]byte(jobID))
		if id == nil {
			return nil
		}
		b := tx.Bucket(ReportBucket).Get(id)
		if b == nil {
			return nil
		}
		rep = &Report{}
		return json.Unmarshal(b, rep)
	})
	return rep, err
}

// ListReports returns all stored reports in ID order. Report IDs are
// sortable by creation time.
func (r *DB) ListReports() ([]*Report, error) {
	var reports []*Report
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(ReportBucket).ForEach(func(k, v []byte) error {
			rep := &Report{}
			if err := json.Unmarshal(v, rep); err != nil {
				return err
			}
			reports = append(reports, rep)
			return nil
		})
	})
	return reports, err
}

// Close closes the underlying database.
func (r *DB) Close() error {
	return r.db.Close()
}
