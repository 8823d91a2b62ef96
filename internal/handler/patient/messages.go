package patient

// messages holds the user-facing texts of one mutation.
type messages struct {
	invalid    string
	notFound   string
	noChanges  string
	success    string
	unexpected string
}

var (
	createMessages = messages{
		invalid:    "Failed to add patient. Please check the fields.",
		success:    "Patient added successfully.",
		unexpected: "An unexpected error occurred while adding the patient.",
	}
	updateMessages = messages{
		invalid:    "Failed to update patient. Please check the fields.",
		notFound:   "Failed to update patient. Patient not found.",
		noChanges:  "No changes provided to update.",
		success:    "Patient updated successfully.",
		unexpected: "An unexpected error occurred while updating the patient.",
	}
	archiveMessages = messages{
		invalid:    "Failed to archive patient. Invalid patient ID.",
		notFound:   "Failed to archive patient. Patient not found.",
		success:    "Patient archived successfully.",
		unexpected: "An unexpected error occurred while archiving the patient.",
	}
	statusMessages = messages{
		invalid:    "Failed to update patient status. Invalid data.",
		notFound:   "Failed to update status. Patient not found.",
		success:    "Patient status updated successfully.",
		unexpected: "An unexpected error occurred while updating patient status.",
	}
)

const (
	msgFetchFailed = "Failed to fetch patients"
	msgFetchOne    = "Failed to fetch patient"
	msgInvalidBody = "Invalid request body."
)
