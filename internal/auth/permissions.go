package auth

// Role names. RoleAdmin bypasses all permission and role guards.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// Permission names grouped by concern. The seed grants all of them to
// the ADMIN role; the USER role gets only the diary self-service pair
// (CREATE_DIARY, VIEW_OWN_DIARY).
const (
	// User management.
	PermCreateUser = "CREATE_USER"
	PermViewUser   = "VIEW_USER"
	PermUpdateUser = "UPDATE_USER"
	PermDeleteUser = "DELETE_USER"
	PermBlockUser  = "BLOCK_USER"

	// Role and permission management.
	PermCreateRole       = "CREATE_ROLE"
	PermViewRole         = "VIEW_ROLE"
	PermUpdateRole       = "UPDATE_ROLE"
	PermDeleteRole       = "DELETE_ROLE"
	PermAssignRole       = "ASSIGN_ROLE"
	PermViewPermission   = "VIEW_PERMISSION"
	PermCreatePermission = "CREATE_PERMISSION"

	// Unit management.
	PermCreateUnit = "CREATE_UNIT"
	PermViewUnit   = "VIEW_UNIT"
	PermUpdateUnit = "UPDATE_UNIT"
	PermDeleteUnit = "DELETE_UNIT"
	PermImportUnit = "IMPORT_UNIT"

	// Diary access.
	PermCreateDiary    = "CREATE_DIARY"
	PermViewOwnDiary   = "VIEW_OWN_DIARY"
	PermUpdateOwnDiary = "UPDATE_OWN_DIARY"
	PermDeleteOwnDiary = "DELETE_OWN_DIARY"
	PermViewSharedFeed = "VIEW_SHARED_FEED"

	// Analytics and dashboards.
	PermViewAllUnitsAnalytics    = "VIEW_ALL_UNITS_ANALYTICS"
	PermViewUnitEmotionDashboard = "VIEW_UNIT_EMOTION_DASHBOARD"
	PermViewEmotionAlerts        = "VIEW_EMOTION_ALERTS"
	PermResolveEmotionAlerts     = "RESOLVE_EMOTION_ALERTS"

	// Support content.
	PermCreateSupportContent = "CREATE_SUPPORT_CONTENT"
	PermUpdateSupportContent = "UPDATE_SUPPORT_CONTENT"
	PermDeleteSupportContent = "DELETE_SUPPORT_CONTENT"

	// Ideological work notes.
	PermCreateWorkNote = "CREATE_WORK_NOTE"
	PermViewWorkNote   = "VIEW_WORK_NOTE"
	PermUpdateWorkNote = "UPDATE_WORK_NOTE"
	PermDeleteWorkNote = "DELETE_WORK_NOTE"

	// Operations.
	PermViewLoginHistory = "VIEW_LOGIN_HISTORY"
	PermExportData       = "EXPORT_DATA"
	PermRunBackup        = "RUN_BACKUP"
)

// AllPermissions lists every permission the seed creates.
var AllPermissions = []string{
	PermCreateUser, PermViewUser, PermUpdateUser, PermDeleteUser, PermBlockUser,
	PermCreateRole, PermViewRole, PermUpdateRole, PermDeleteRole, PermAssignRole,
	PermViewPermission, PermCreatePermission,
	PermCreateUnit, PermViewUnit, PermUpdateUnit, PermDeleteUnit, PermImportUnit,
	PermCreateDiary, PermViewOwnDiary, PermUpdateOwnDiary, PermDeleteOwnDiary,
	PermViewSharedFeed,
	PermViewAllUnitsAnalytics, PermViewUnitEmotionDashboard,
	PermViewEmotionAlerts, PermResolveEmotionAlerts,
	PermCreateSupportContent, PermUpdateSupportContent, PermDeleteSupportContent,
	PermCreateWorkNote, PermViewWorkNote, PermUpdateWorkNote, PermDeleteWorkNote,
	PermViewLoginHistory, PermExportData, PermRunBackup,
}
