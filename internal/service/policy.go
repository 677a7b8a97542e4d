package service

import (
	"slices"

	"github.com/google/uuid"

	"github.com/eduplatforme/exam-backend/internal/model"
)

// Capability names an action on the exam core.
type Capability string

const (
	CapExamView    Capability = "exam:view"
	CapExamAuthor  Capability = "exam:author"
	CapExamManage  Capability = "exam:manage"
	CapExamAttempt Capability = "exam:attempt"
	CapResultsOwn  Capability = "results:own"
	CapResultsAll  Capability = "results:all"
)

// Actor is the authenticated caller as carried by the session credential.
type Actor struct {
	ID   uuid.UUID
	Role model.Role
}

type rule struct {
	roles     []model.Role
	ownerOnly bool
}

var rules = map[Capability]rule{
	CapExamView:    {roles: []model.Role{model.RoleStudent, model.RoleTeacher}},
	CapExamAuthor:  {roles: []model.Role{model.RoleTeacher}},
	CapExamManage:  {roles: []model.Role{model.RoleTeacher}, ownerOnly: true},
	CapExamAttempt: {roles: []model.Role{model.RoleStudent}},
	CapResultsOwn:  {roles: []model.Role{model.RoleStudent}},
	CapResultsAll:  {roles: []model.Role{model.RoleTeacher}, ownerOnly: true},
}

// Authorize checks that actor holds capability c. owner is the owning teacher of the
// resource and is only consulted for owner-scoped capabilities.
func Authorize(actor Actor, c Capability, owner uuid.UUID) error {
	r, ok := rules[c]
	if !ok || !slices.Contains(r.roles, actor.Role) {
		return ErrRoleNotPermitted
	}
	if r.ownerOnly && actor.ID != owner {
		return ErrNotExamOwner
	}
	return nil
}

// Can is Authorize as a predicate.
func Can(actor Actor, c Capability, owner uuid.UUID) bool {
	return Authorize(actor, c, owner) == nil
}
