package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/Omarrawas/Atmetny1/internal/exams"
)

const defaultPersona = "أنت مساعد تعليمي يعمل بالذكاء الاصطناعي متخصص في تحليل أداء الطلاب في الاختبارات التدريبية."

const promptTemplate = `ستتلقى نتائج اختبارات الطالب، بما في ذلك المادة والموضوع والدرجة لكل اختبار تم إجراؤه. ستتلقى أيضًا أهداف الطالب من هذا الاختبار، إن وجدت.

بناءً على هذه المعلومات، قدم توصيات مخصصة باللغة العربية حول المواد أو المواضيع التي يحتاج الطالب للتركيز عليها لتحسين درجاته. إذا لزم الأمر، اطرح أسئلة توضيحية باللغة العربية لتحديد التوصيات بشكل أفضل.

أجب بكائن JSON فقط بالحقلين "recommendations" و"followUpQuestions" (اختياري)، وكلاهما نص.

نتائج الاختبار: %s
أهداف الطالب: %s

التوصيات:
`

func buildPrompt(results, goals string) string {
	return fmt.Sprintf(promptTemplate, results, goals)
}

// summarizeAttempts renders attempts as one line each, newest first.
func summarizeAttempts(list []exams.Attempt, names map[string]string) string {
	var b strings.Builder
	for _, a := range list {
		subject := names[a.SubjectID]
		if subject == "" {
			subject = a.SubjectID
		}
		if subject == "" {
			subject = exams.UnknownSubjectName
		}
		kind := "اختبار عام"
		if a.ExamType == exams.SubjectPractice {
			kind = "تدريب على المادة"
		}
		fmt.Fprintf(&b, "- %s (%s): %.2f%% (%d/%d إجابة صحيحة) بتاريخ %s\n",
			subject, kind, a.Score, a.CorrectAnswersCount, a.TotalQuestionsAttempted, a.CompletedAt.UTC().Format(time.DateOnly))
	}
	return strings.TrimSpace(b.String())
}
