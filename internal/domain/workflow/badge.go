package workflow

import "strings"

const (
	ColorGray  = "gray"
	ColorAmber = "amber"
	ColorGreen = "green"
	ColorRed   = "red"
	ColorBlue  = "blue"
)

type Badge struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

var UnknownBadge = Badge{Label: "Unknown", Color: ColorGray}

var badges = map[string]Badge{
	StatusDraft:           {Label: "Draft", Color: ColorGray},
	StatusPendingTeamLead: {Label: "Pending Team Lead", Color: ColorAmber},
	StatusPendingHR:       {Label: "Pending HR", Color: ColorAmber},
	StatusPendingMD:       {Label: "Pending MD", Color: ColorAmber},
	StatusApproved:        {Label: "Approved", Color: ColorGreen},
	StatusRejected:        {Label: "Rejected", Color: ColorRed},
	StatusCancelled:       {Label: "Cancelled", Color: ColorGray},

	"present":   {Label: "Present", Color: ColorGreen},
	"late":      {Label: "Late", Color: ColorAmber},
	"absent":    {Label: "Absent", Color: ColorRed},
	"active":    {Label: "Active", Color: ColorGreen},
	"inactive":  {Label: "Inactive", Color: ColorGray},
	"open":      {Label: "Open", Color: ColorGreen},
	"closed":    {Label: "Closed", Color: ColorGray},
	"finalized": {Label: "Finalized", Color: ColorGreen},
	"applied":   {Label: "Applied", Color: ColorBlue},
	"screening": {Label: "Screening", Color: ColorBlue},
	"interview": {Label: "Interview", Color: ColorBlue},
	"offer":     {Label: "Offer", Color: ColorAmber},
	"hired":     {Label: "Hired", Color: ColorGreen},
	"pending":   {Label: "Pending", Color: ColorAmber},
	"accepted":  {Label: "Accepted", Color: ColorGreen},
	"expired":   {Label: "Expired", Color: ColorGray},
	"revoked":   {Label: "Revoked", Color: ColorRed},
}

// Label maps a status string to its display badge. Matching ignores case and
// surrounding space. Unknown statuses get UnknownBadge.
func Label(status string) Badge {
	if b, ok := badges[strings.ToLower(strings.TrimSpace(status))]; ok {
		return b
	}
	return UnknownBadge
}

// Badges returns a copy of the full mapping for clients that render offline.
func Badges() map[string]Badge {
	out := make(map[string]Badge, len(badges))
	for k, v := range badges {
		out[k] = v
	}
	return out
}
