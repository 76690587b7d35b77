package domain

import (
	"testing"
	"time"
)

var (
	testNow = time.Date(2022, 3, 1, 10, 0, 0, 0, time.UTC)

	student    = Caller{PersonID: "student-1"}
	cddManager = Caller{PersonID: "cdd-1", Grants: []Grant{{Role: RoleCDDManager, Scope: "CDA"}}}
	adre       = Caller{PersonID: "adre-1", Grants: []Grant{{Role: RoleADREManager}}}
	sceb       = Caller{PersonID: "sceb-1", Grants: []Grant{{Role: RoleSCEBManager}}}
	stranger   = Caller{PersonID: "someone-else"}
)

func newTestDoctorate(t *testing.T) *Doctorate {
	t.Helper()
	d, err := NewDoctorate("", Student{PersonID: "student-1", Noma: "12345678", LastName: "Doe", FirstName: "Jane"},
		Training{ID: "t-1", Code: "sc3dp", Acronym: "SC3DP", CDD: "CDA", AcademicYear: 2021, AdmissionType: "ADMISSION"},
		42, testNow)
	if err != nil {
		t.Fatalf("NewDoctorate() error = %v", err)
	}
	d.ClearDomainEvents()
	return d
}

// inStatus forces the status, for tests that start mid-workflow.
func inStatus(t *testing.T, s DoctorateStatus) *Doctorate {
	t.Helper()
	d := newTestDoctorate(t)
	d.status = s
	return d
}

func member(d *Doctorate, personID string, roles ...Role) Caller {
	c := Caller{PersonID: personID}
	for _, r := range roles {
		c.Memberships = append(c.Memberships, Membership{DoctorateID: d.ID(), Role: r})
	}
	return c
}

func completeProject() Project {
	return Project{
		Title:           "Graph rewriting",
		Abstract:        "Abstract",
		Language:        "EN",
		Documents:       []string{"doc-1"},
		ProgramProposal: []string{"prog-1"},
	}
}

func externalPerson(email string) *ExternalPerson {
	return &ExternalPerson{
		FirstName:   "Ext",
		LastName:    "Person",
		Email:       email,
		Institution: "ULB",
		Country:     "BE",
		Language:    "FR",
		Title:       "PROFESSOR",
		Gender:      "F",
		IsDoctor:    true,
	}
}

func lastActionEvent(t *testing.T, d *Doctorate) *ActionAppliedEvent {
	t.Helper()
	events := d.DomainEvents()
	for i := len(events) - 1; i >= 0; i-- {
		if e, ok := events[i].(*ActionAppliedEvent); ok {
			return e
		}
	}
	t.Fatal("no ActionAppliedEvent recorded")
	return nil
}
