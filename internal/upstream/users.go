package upstream

import (
	"sort"
	"time"

	"github.com/Apocalypse96/FeedbackPro/internal/domain"
)

// The development server authenticates against a fixed user directory.
// Identity arrives on the X-User-ID header; there is no password flow.
var userEpoch = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

var directory = map[int]domain.TeamMember{
	1: {ID: 1, Email: "manager1@company.com", Name: "John Manager", Role: domain.RoleManager, CreatedAt: userEpoch},
	2: {ID: 2, Email: "employee1@company.com", Name: "Jane Employee", Role: domain.RoleEmployee, ManagerID: 1, CreatedAt: userEpoch},
	3: {ID: 3, Email: "employee2@company.com", Name: "Bob Employee", Role: domain.RoleEmployee, CreatedAt: userEpoch, ManagerID: 1},
}

func lookupUser(id int) (domain.TeamMember, bool) {
	u, ok := directory[id]
	return u, ok
}

func userName(id int) string {
	if u, ok := directory[id]; ok {
		return u.Name
	}
	return "Unknown User"
}

func userRole(id int) domain.Role {
	if u, ok := directory[id]; ok {
		return u.Role
	}
	return "unknown"
}

func teamOf(managerID int) []domain.TeamMember {
	var team []domain.TeamMember
	for _, u := range directory {
		if u.ManagerID == managerID {
			team = append(team, u)
		}
	}
	sort.Slice(team, func(i, j int) bool { return team[i].ID < team[j].ID })
	return team
}

func managers() []domain.TeamMember {
	var out []domain.TeamMember
	for _, u := range directory {
		if u.Role == domain.RoleManager {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
