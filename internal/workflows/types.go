package workflows

type PaperOutlineInput struct {
	PDFURL string `json:"pdf_url"`
}

type RunProgress struct {
	PDFURL           string `json:"pdf_url"`
	Title            string `json:"title,omitempty"`
	CurrentStage     string `json:"current_stage"`
	Status           string `json:"status"`
	FailStage        string `json:"fail_stage,omitempty"`
	FailReason       string `json:"fail_reason,omitempty"`
	SectionsTotal    int    `json:"sections_total"`
	SectionsExpanded int    `json:"sections_expanded"`
}
