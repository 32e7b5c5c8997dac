package activation

import "strings"

const chooseSubjectPrefix = "choose_single_subject_"

var fixedPlanNames = map[string]string{
	"general_monthly":                 "اشتراك شهري عام",
	"general_quarterly":               "اشتراك ربع سنوي عام",
	"general_yearly":                  "اشتراك سنوي عام",
	"choose_single_subject_monthly":   "اشتراك شهري لمادة واحدة",
	"choose_single_subject_quarterly": "اشتراك ربع سنوي لمادة واحدة",
	"choose_single_subject_yearly":    "اشتراك سنوي لمادة واحدة",
}

const customPlanName = "اشتراك مخصص"

// NeedsSubjectChoice reports whether codes of this type require the student to pick a subject.
func NeedsSubjectChoice(codeType string) bool {
	return strings.HasPrefix(codeType, chooseSubjectPrefix)
}

// PlanName derives the display name of the subscription a code grants.
func PlanName(codeType, codeSubjectName, chosenSubjectName string) string {
	if chosenSubjectName != "" {
		return "اشتراك لمادة " + chosenSubjectName
	}
	if codeSubjectName != "" {
		return "اشتراك لمادة " + codeSubjectName
	}
	if codeType == "" {
		return customPlanName
	}
	if name, ok := fixedPlanNames[codeType]; ok {
		return name
	}
	parts := strings.Split(strings.ReplaceAll(codeType, "_", " "), " ")
	for i, p := range parts {
		if p == "" {
			continue
		}
		r := []rune(p)
		parts[i] = strings.ToUpper(string(r[0])) + string(r[1:])
	}
	if name := strings.Join(parts, " "); strings.TrimSpace(name) != "" {
		return name
	}
	return customPlanName
}
