package activation

import (
	"errors"
	"fmt"
)

// Error codes carried by *Error.
const (
	CodeEmpty             = "empty_code"
	CodeIncompletePayload = "incomplete_payload"
	CodeNotFound          = "code_not_found"
	CodeInactive          = "code_inactive"
	CodeUsed              = "code_used"
	CodeNotYetValid       = "code_not_yet_valid"
	CodeExpired           = "code_expired"
	CodeSubjectRequired   = "subject_required"
)

const (
	msgEmpty           = "الرجاء إدخال رمز التفعيل."
	msgCheckNotFound   = "رمز التفعيل غير موجود أو غير صحيح."
	msgCheckInactive   = "رمز التفعيل هذا غير نشط حاليًا (قد يكون استخدم سابقًا أو تم إلغاؤه)."
	msgUsed            = "رمز التفعيل هذا تم استخدامه مسبقاً."
	msgNotYetValid     = "رمز التفعيل هذا غير صالح للاستخدام قبل تاريخ %s."
	msgExpired         = "صلاحية رمز التفعيل هذا قد انتهت."
	msgValidChoose     = "الرمز صالح. يرجى اختيار المادة لتفعيل الاشتراك."
	msgValid           = "الرمز صالح للتفعيل."
	msgIncomplete      = "بيانات التفعيل الأساسية غير مكتملة (المستخدم، الرمز)."
	msgConfirmNotFound = "رمز التفعيل المحدد غير موجود."
	msgConfirmInactive = "رمز التفعيل هذا غير نشط حاليًا."
	msgSubjectRequired = "لم يتم اختيار المادة للاشتراك الفردي المحدد بالرمز."
	MsgCheckFailed     = "حدث خطأ أثناء التحقق من الرمز."
	MsgConfirmFailed   = "حدث خطأ أثناء تأكيد التفعيل."
	successWithSubject = "تم تفعيل اشتراكك في مادة \"%s\" بنجاح! ينتهي في %s."
	successGeneral     = "تم تفعيل اشتراكك بنجاح! ينتهي في %s"
)

// ErrNotFound is returned by admin operations on unknown code ids.
var ErrNotFound = errors.New("activation code not found")

// ErrDuplicate is returned when a generated encoded value already exists.
var ErrDuplicate = errors.New("activation code value already exists")

// Error is a redemption failure that is shown to the student as is.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func newError(code, msg string) *Error { return &Error{Code: code, Message: msg} }

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
