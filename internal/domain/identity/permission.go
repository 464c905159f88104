package identity

// Permission is a named capability granted to a user
type Permission string

const (
	PermSupervisor             Permission = "supervisor"
	PermAddTicket              Permission = "add_ticket"
	PermChangeTicket           Permission = "change_ticket"
	PermSeeAllDocs             Permission = "see_all_docs"
	PermEditAllDocs            Permission = "edit_all_docs"
	PermAddExpediture          Permission = "add_expediture"
	PermChangeExpediture       Permission = "change_expediture"
	PermAddPreexpediture       Permission = "add_preexpediture"
	PermChangePreexpediture    Permission = "change_preexpediture"
	PermAddMediaInfo           Permission = "add_mediainfo"
	PermChangeMediaInfo        Permission = "change_mediainfo"
	PermAddTrackerProfile      Permission = "add_trackerprofile"
	PermChangeTrackerProfile   Permission = "change_trackerprofile"
	PermBypassDisabledComments Permission = "bypass_disabled_comments"
	PermImportUnlimitedRows    Permission = "import_unlimited_rows"
)

// AllPermissions lists every permission known to the tracker
func AllPermissions() []Permission {
	return []Permission{
		PermSupervisor,
		PermAddTicket,
		PermChangeTicket,
		PermSeeAllDocs,
		PermEditAllDocs,
		PermAddExpediture,
		PermChangeExpediture,
		PermAddPreexpediture,
		PermChangePreexpediture,
		PermAddMediaInfo,
		PermChangeMediaInfo,
		PermAddTrackerProfile,
		PermChangeTrackerProfile,
		PermBypassDisabledComments,
		PermImportUnlimitedRows,
	}
}

// IsValid reports whether p is a known permission
func (p Permission) IsValid() bool {
	for _, known := range AllPermissions() {
		if p == known {
			return true
		}
	}
	return false
}
