package tickets

import "time"

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

// Seed returns the sample tickets a fresh store starts with.
func Seed() []Ticket {
	return []Ticket{
		{1, "Addition of Guarantors to Loan Module", StatusOpen, "Email", at("2024-05-06T12:00:00Z"),
			"Sky Portal", "User Administration", "Add Feature", "Request to add guarantor functionality"},
		{2, "Reset Password for Client Account", StatusResolved, "Email", at("2024-05-07T12:00:00Z"),
			"Sky Portal", "User Administration", "Password Issue", "User unable to login"},
		{3, "Portal Rights Requisition for New Intern", StatusClosed, "Email", at("2024-05-08T12:00:00Z"),
			"Sky Portal", "Access Rights", "Permission Request", "Request for additional portal access"},
		{4, "Addition of SHA Insurance Module", StatusInProgress, "Help Desk System", at("2024-05-10T12:00:00Z"),
			"Insurance", "SHA", "Add Feature", "Request to add SHA insurance module"},
		{5, "Cannot Generate Monthly Statement", StatusOpen, "Phone Call", at("2024-06-11T09:30:00Z"),
			"Reporting", "Statements", "Bug Report", "The system hangs when trying to generate the monthly financial statement."},
		{6, "UI Glitch on Dashboard Widget", StatusInProgress, "Help Desk System", at("2024-06-12T15:00:00Z"),
			"Sky Portal", "Dashboard", "UI Bug", "The main revenue chart is not displaying the correct labels."},
		{7, "Export to CSV Fails for Large Datasets", StatusOnHold, "Email", at("2024-06-14T11:00:00Z"),
			"Reporting", "Data Export", "Performance Issue", "Exporting more than 10,000 records results in a server timeout. Awaiting server upgrade."},
		{8, "Update Company Logo in Portal", StatusResolved, "Help Desk System", at("2024-07-01T10:00:00Z"),
			"Sky Portal", "Branding", "Change Request", "Please update the company logo in the navbar and footer."},
		{9, "Two-Factor Authentication (2FA) Setup", StatusOpen, "Email", at("2024-07-05T14:20:00Z"),
			"Security", "Authentication", "Feature Request", "We would like to enable 2FA for all admin-level users."},
		{10, "User Deactivation Request - John Doe", StatusClosed, "Help Desk System", at("2024-07-15T16:00:00Z"),
			"Sky Portal", "User Administration", "Deactivate User", "John Doe has left the company. Please deactivate his account."},
		{11, "Mobile App Crashing on iOS 17.5", StatusInProgress, "App Store Review", at("2024-08-01T18:00:00Z"),
			"Mobile App", "iOS", "Bug Report", "Multiple users reporting that the app crashes on launch after the latest iOS update."},
		{12, "Incorrect Calculation in Loan Amortization Schedule", StatusDropped, "Email", at("2024-08-03T13:00:00Z"),
			"Loan Module", "Calculations", "Bug Report", "The interest calculation for the final month is incorrect. User reported they are using a workaround."},
		{13, "Feature Request: Dark Mode", StatusOpen, "Help Desk System", at("2024-08-20T11:45:00Z"),
			"Sky Portal", "UI/UX", "Feature Request", "Request to add a dark mode theme to the user settings."},
		{14, "API Rate Limit Inquiry", StatusResolved, "Email", at("2024-09-02T17:00:00Z"),
			"API", "Integrations", "Question", "A third-party developer is asking about the rate limits for our public API."},
	}
}
