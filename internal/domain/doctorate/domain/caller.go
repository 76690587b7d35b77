package domain

// Role is a role a person may hold, globally or on one doctorate.
type Role string

// Roles known to the workflow.
const (
	RoleStudent       Role = "STUDENT"
	RolePromoter      Role = "PROMOTER"
	RoleCAMember      Role = "CA_MEMBER"
	RoleCDDManager    Role = "CDD_MANAGER"
	RoleADREManager   Role = "ADRE_MANAGER"
	RoleADRIManager   Role = "ADRI_MANAGER"
	RoleSCEBManager   Role = "SCEB_MANAGER"
	RoleJuryPresident Role = "JURY_PRESIDENT"
	RoleJurySecretary Role = "JURY_SECRETARY"
	RoleJuryMember    Role = "JURY_MEMBER"
)

// Grant is a role held outside any single doctorate. Scope narrows a
// management role to one CDD (by acronym); an empty scope is institution-wide.
type Grant struct {
	Role  Role
	Scope string
}

// Membership binds a person to one doctorate with a role.
type Membership struct {
	DoctorateID DoctorateID
	Role        Role
}

// Caller is the identity issuing a command together with what it may do.
type Caller struct {
	PersonID    string
	Grants      []Grant
	Memberships []Membership
}

// System is the caller used by background jobs writing results back.
var System = Caller{PersonID: "system", Grants: []Grant{
	{Role: RoleADREManager}, {Role: RoleSCEBManager}, {Role: RoleADRIManager}, {Role: RoleCDDManager},
}}

// Has reports whether the caller holds role institution-wide or in any scope.
func (c Caller) Has(role Role) bool {
	for _, g := range c.Grants {
		if g.Role == role {
			return true
		}
	}
	return false
}

// ManagesCDD reports whether the caller manages the given CDD.
func (c Caller) ManagesCDD(acronym string) bool {
	for _, g := range c.Grants {
		if g.Role == RoleCDDManager && (g.Scope == "" || g.Scope == acronym) {
			return true
		}
	}
	return false
}

// IsMember reports whether the caller holds role on the doctorate.
func (c Caller) IsMember(id DoctorateID, role Role) bool {
	for _, m := range c.Memberships {
		if m.DoctorateID == id && m.Role == role {
			return true
		}
	}
	return false
}

// Policy decides whether a caller may act on a doctorate.
type Policy func(c Caller, d *Doctorate) bool

// AnyOf combines policies with a logical OR.
func AnyOf(policies ...Policy) Policy {
	return func(c Caller, d *Doctorate) bool {
		for _, p := range policies {
			if p(c, d) {
				return true
			}
		}
		return false
	}
}

// IsStudent allows the student the doctorate belongs to.
func IsStudent(c Caller, d *Doctorate) bool {
	return c.PersonID != "" && c.PersonID == d.StudentID()
}

// IsPromoter allows promoters of the doctorate.
func IsPromoter(c Caller, d *Doctorate) bool {
	return c.IsMember(d.ID(), RolePromoter)
}

// IsSupervisionMember allows promoters and CA members of the doctorate.
func IsSupervisionMember(c Caller, d *Doctorate) bool {
	return c.IsMember(d.ID(), RolePromoter) || c.IsMember(d.ID(), RoleCAMember)
}

// IsCDDManager allows managers of the doctorate's CDD.
func IsCDDManager(c Caller, d *Doctorate) bool {
	return c.ManagesCDD(d.Training().CDD)
}

// IsADREManager allows ADRE managers.
func IsADREManager(c Caller, _ *Doctorate) bool {
	return c.Has(RoleADREManager)
}

// IsSCEBManager allows SCEB managers.
func IsSCEBManager(c Caller, _ *Doctorate) bool {
	return c.Has(RoleSCEBManager)
}

// IsJurySecretaryOrPresident allows the secretary and president of the jury.
func IsJurySecretaryOrPresident(c Caller, d *Doctorate) bool {
	return c.IsMember(d.ID(), RoleJurySecretary) || c.IsMember(d.ID(), RoleJuryPresident)
}

// IsJuryMember allows any jury member, promoters included.
func IsJuryMember(c Caller, d *Doctorate) bool {
	return c.IsMember(d.ID(), RoleJuryMember) || IsJurySecretaryOrPresident(c, d)
}

// IsManager allows CDD and ADRE managers of the doctorate.
var IsManager = AnyOf(IsCDDManager, IsADREManager)

// CanSubmitDefenseMinutes allows the jury secretary, the jury president or a
// promoter, plus managers.
var CanSubmitDefenseMinutes = AnyOf(IsJurySecretaryOrPresident, IsPromoter, IsManager)
