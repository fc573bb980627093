// Package dummydb is an in-memory implementation of the repository
// interfaces, used by tests and for toying around without a database.
package dummydb

import (
	"sync"

	"github.com/walimuhq/walimu/core/tutoring"
	"github.com/walimuhq/walimu/core/user"
)

type (
	DB struct {
		user       *userTable
		tutor      *tutorTable
		pairing    *pairingTable
		session    *sessionTable
		assignment *assignmentTable
		exam       *examTable
		review     *reviewTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	tutorTable struct {
		sync.RWMutex
		table map[string]*tutoring.Tutor
	}

	pairingTable struct {
		sync.RWMutex
		table map[string]*tutoring.Pairing
	}

	sessionTable struct {
		sync.RWMutex
		table map[string]*tutoring.Session
	}

	assignmentTable struct {
		sync.RWMutex
		table map[string]*tutoring.Assignment
	}

	examTable struct {
		sync.RWMutex
		table map[string]*tutoring.Exam
	}

	reviewTable struct {
		sync.RWMutex
		table map[string]*tutoring.Review
	}
)

// Reset empties all tables, giving each test a clean slate.
func (db *DB) Reset() {
	db.user.Lock()
	db.user.table = make(map[string]*user.User)
	db.user.Unlock()

	db.tutor.Lock()
	db.tutor.table = make(map[string]*tutoring.Tutor)
	db.tutor.Unlock()

	db.pairing.Lock()
	db.pairing.table = make(map[string]*tutoring.Pairing)
	db.pairing.Unlock()

	db.session.Lock()
	db.session.table = make(map[string]*tutoring.Session)
	db.session.Unlock()

	db.assignment.Lock()
	db.assignment.table = make(map[string]*tutoring.Assignment)
	db.assignment.Unlock()

	db.exam.Lock()
	db.exam.table = make(map[string]*tutoring.Exam)
	db.exam.Unlock()

	db.review.Lock()
	db.review.table = make(map[string]*tutoring.Review)
	db.review.Unlock()
}

func Open() (*DB, error) {
	db := &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		tutor:      &tutorTable{table: make(map[string]*tutoring.Tutor)},
		pairing:    &pairingTable{table: make(map[string]*tutoring.Pairing)},
		session:    &sessionTable{table: make(map[string]*tutoring.Session)},
		assignment: &assignmentTable{table: make(map[string]*tutoring.Assignment)},
		exam:       &examTable{table: make(map[string]*tutoring.Exam)},
		review:     &reviewTable{table: make(map[string]*tutoring.Review)},
	}
	return db, nil
}
