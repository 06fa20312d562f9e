package clockify

import "strings"

type Workspace struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Status string `json:"status"`
}

type Client struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	WorkspaceID string `json:"workspaceId"`
	Archived    bool   `json:"archived"`
}

type Tag struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	WorkspaceID string `json:"workspaceId"`
}

type UserGroup struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	UserIDs []string `json:"userIds"`
}

type Project struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	ClientID    string       `json:"clientId"`
	ClientName  string       `json:"clientName"`
	WorkspaceID string       `json:"workspaceId"`
	Billable    bool         `json:"billable"`
	Public      bool         `json:"public"`
	Color       string       `json:"color"`
	Archived    bool         `json:"archived"`
	Memberships []Membership `json:"memberships,omitempty"`
}

type Task struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ProjectID string `json:"projectId"`
	Estimate  string `json:"estimate"`
}

type HourlyRate struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency,omitempty"`
}

type Membership struct {
	UserID           string      `json:"userId"`
	HourlyRate       *HourlyRate `json:"hourlyRate,omitempty"`
	MembershipType   string      `json:"membershipType"`
	MembershipStatus string      `json:"membershipStatus"`
	Manager          bool        `json:"manager,omitempty"`
}

// ProjectMembership builds an active project membership for userID.
func ProjectMembership(userID string, manager bool) Membership {
	return Membership{
		UserID:           userID,
		MembershipType:   "PROJECT",
		MembershipStatus: "ACTIVE",
		Manager:          manager,
	}
}

// NewProject describes a project to create. ClientName and Manager are
// resolved by AddProject; Groups are attached after creation.
type NewProject struct {
	Name        string
	ClientName  *string
	Public      bool
	Billable    bool
	Color       string
	HourlyRate  *HourlyRate
	Memberships []Membership
	// Manager is the email whose api key creates the project. Empty means
	// the admin identity.
	Manager string
	Groups  []string
}

type projectRequest struct {
	Name        string       `json:"name"`
	ClientID    string       `json:"clientId,omitempty"`
	IsPublic    bool         `json:"isPublic"`
	Billable    bool         `json:"billable"`
	Color       string       `json:"color,omitempty"`
	HourlyRate  *HourlyRate  `json:"hourlyRate,omitempty"`
	Memberships []Membership `json:"memberships,omitempty"`
}

type projectUpdate struct {
	Name     string `json:"name"`
	Archived bool   `json:"archived"`
}

type teamRequest struct {
	UserIDs      []string `json:"userIds"`
	UserGroupIDs []string `json:"userGroupIds"`
}

type taskRequest struct {
	Name      string `json:"name"`
	ProjectID string `json:"projectId"`
	Estimate  string `json:"estimate,omitempty"`
}

type nameRequest struct {
	Name string `json:"name"`
}

// TimeInterval mirrors the interval block of a Clockify time entry.
type TimeInterval struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Duration string `json:"duration"`
}

// RemoteEntry is a time entry as returned by Clockify.
type RemoteEntry struct {
	ID           string       `json:"id"`
	Description  string       `json:"description"`
	ProjectID    string       `json:"projectId"`
	TaskID       string       `json:"taskId"`
	UserID       string       `json:"userId"`
	WorkspaceID  string       `json:"workspaceId"`
	Billable     bool         `json:"billable"`
	TagIDs       []string     `json:"tagIds"`
	TimeInterval TimeInterval `json:"timeInterval"`
}

// Identity is one configured api key and the user it authenticates.
type Identity struct {
	APIKey  string
	ID      string
	Name    string
	Email   string
	IsAdmin bool
}

func sameEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
