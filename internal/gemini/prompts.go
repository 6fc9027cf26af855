package gemini

import "fmt"

const outlinePrompt = `Analyze this research paper and extract a comprehensive structured outline.

Extract the following information:
1. Full paper title
2. List of all authors
3. Abstract or summary
4. All major sections with:
   - Section title
   - Brief description of content
   - Any subsections
5. Key terms and concepts

Be thorough and capture all structural elements of the paper.
Include sections like Abstract, Introduction, Related Work, Methodology,
Results, Discussion, Conclusion, etc.`

func sectionPrompt(title, description string) string {
	return fmt.Sprintf(`Analyze this research paper and extract detailed structured information about the following section:

Section: %s
Description: %s

Extract and provide:
1. A comprehensive summary (2-4 paragraphs) of the section content
2. Key points and main findings
3. Methodologies or approaches described (if applicable)
4. Results or findings with their significance (if applicable)
5. Figures, tables, or equations referenced with descriptions
6. Key citations mentioned in this section

Focus on this specific section and extract all relevant structured information.
Be thorough and capture important details, data, and references.`, title, description)
}
