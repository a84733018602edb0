package email

const (
	subjectInstallationConfirmationFmt = "Installation Confirmation - %s"
	subjectInstallerAssignmentFmt      = "Installation Assignment - %s"
	subjectFollowupDigestFmt           = "Follow-ups for %s: %d due"
	subjectSMTPTest                    = "WrapCRM SMTP test"
	subjectShippingNotificationFmt     = "Your sample booklet is on its way - %s"
)
