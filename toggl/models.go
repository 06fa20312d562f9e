package toggl

type Workspace struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Admin bool   `json:"admin"`
}

type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Fullname string `json:"fullname"`
}

type Client struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	WorkspaceID int64  `json:"wid"`
}

type Project struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	ClientID    *int64   `json:"cid"`
	WorkspaceID int64    `json:"wid"`
	Active      bool     `json:"active"`
	IsPrivate   bool     `json:"is_private"`
	Billable    bool     `json:"billable"`
	HexColor    string   `json:"hex_color"`
	Rate        *float64 `json:"rate"`
}

type ProjectUser struct {
	ID        int64    `json:"id"`
	ProjectID int64    `json:"pid"`
	UserID    int64    `json:"uid"`
	Manager   bool     `json:"manager"`
	Rate      *float64 `json:"rate"`
}

type ProjectGroup struct {
	ID        int64 `json:"id"`
	ProjectID int64 `json:"pid"`
	GroupID   int64 `json:"group_id"`
}

type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Group struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Task struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	ProjectID        int64  `json:"pid"`
	Active           bool   `json:"active"`
	EstimatedSeconds int64  `json:"estimated_seconds"`
}

// ReportRow is one entry of the detailed report. Nullable fields are
// pointers; Tags is nil when the report omits them.
type ReportRow struct {
	Start       string   `json:"start"`
	End         *string  `json:"end"`
	Description string   `json:"description"`
	Project     *string  `json:"project"`
	Client      *string  `json:"client"`
	IsBillable  bool     `json:"is_billable"`
	Tags        []string `json:"tags"`
	Task        *string  `json:"task"`
	UserID      int64    `json:"uid"`
	User        string   `json:"user"`
}

type reportPage struct {
	Data       []ReportRow `json:"data"`
	TotalCount int         `json:"total_count"`
}

type meResponse struct {
	Data struct {
		Email      string      `json:"email"`
		Workspaces []Workspace `json:"workspaces"`
	} `json:"data"`
}
