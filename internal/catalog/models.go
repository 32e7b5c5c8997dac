package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Branch is the academic track a subject belongs to.
type Branch string

const (
	BranchScientific Branch = "scientific"
	BranchLiterary   Branch = "literary"
	BranchCommon     Branch = "common"
)

type Subject struct {
	ID          string `bson:"_id" json:"id"`
	Name        string `bson:"name" json:"name"`
	Branch      Branch `bson:"branch" json:"branch"`
	IconName    string `bson:"iconName,omitempty" json:"iconName,omitempty"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	Image       string `bson:"image,omitempty" json:"image,omitempty"`
	ImageHint   string `bson:"imageHint,omitempty" json:"imageHint,omitempty"`
}

type Section struct {
	ID          string    `bson:"_id" json:"id"`
	SubjectID   string    `bson:"subjectId" json:"subjectId"`
	Title       string    `bson:"title" json:"title"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Order       int       `bson:"order" json:"order"`
	Type        string    `bson:"type,omitempty" json:"type,omitempty"`
	CreatedAt   time.Time `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt   time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

type Teacher struct {
	Name       string `bson:"name" json:"name"`
	YoutubeURL string `bson:"youtubeUrl" json:"youtubeUrl"`
}

// LessonFile is a lesson attachment. Files with a Key live in object storage
// and get a presigned URL when served.
type LessonFile struct {
	Name string `bson:"name" json:"name"`
	URL  string `bson:"url" json:"url"`
	Type string `bson:"type,omitempty" json:"type,omitempty"`
	Key  string `bson:"key,omitempty" json:"-"`
}

// LockSetting is the admin lock flag of a lesson. Stored documents carry a
// bool, a "true"/"false" string, or nothing at all.
type LockSetting int8

const (
	LockUnset LockSetting = iota
	LockOpen
	LockLocked
)

func parseLock(v string) LockSetting {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true":
		return LockLocked
	case "false":
		return LockOpen
	}
	return LockUnset
}

func (l *LockSetting) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Boolean:
		if raw.Boolean() {
			*l = LockLocked
		} else {
			*l = LockOpen
		}
	case bsontype.String:
		*l = parseLock(raw.StringValue())
	default:
		*l = LockUnset
	}
	return nil
}

func (l LockSetting) MarshalBSONValue() (bsontype.Type, []byte, error) {
	switch l {
	case LockLocked:
		return bson.MarshalValue(true)
	case LockOpen:
		return bson.MarshalValue(false)
	}
	return bson.MarshalValue(nil)
}

func (l *LockSetting) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case bool:
		if x {
			*l = LockLocked
		} else {
			*l = LockOpen
		}
	case string:
		*l = parseLock(x)
	case nil:
		*l = LockUnset
	default:
		return fmt.Errorf("invalid lock setting %s", string(b))
	}
	return nil
}

func (l LockSetting) MarshalJSON() ([]byte, error) {
	switch l {
	case LockLocked:
		return []byte("true"), nil
	case LockOpen:
		return []byte("false"), nil
	}
	return []byte("null"), nil
}

type Lesson struct {
	ID            string       `bson:"_id" json:"id"`
	SubjectID     string       `bson:"subjectId" json:"subjectId"`
	SectionID     string       `bson:"sectionId" json:"sectionId"`
	Title         string       `bson:"title" json:"title"`
	Content       string       `bson:"content,omitempty" json:"content,omitempty"`
	Notes         string       `bson:"notes,omitempty" json:"notes,omitempty"`
	VideoURL      string       `bson:"videoUrl,omitempty" json:"videoUrl,omitempty"`
	Teachers      []Teacher    `bson:"teachers" json:"teachers"`
	Files         []LessonFile `bson:"files" json:"files"`
	Order         int          `bson:"order" json:"order"`
	TeacherID     string       `bson:"teacherId,omitempty" json:"teacherId,omitempty"`
	TeacherName   string       `bson:"teacherName,omitempty" json:"teacherName,omitempty"`
	LinkedExamIDs []string     `bson:"linkedExamIds" json:"linkedExamIds"`
	IsLocked      LockSetting  `bson:"isLocked" json:"isLocked"`
	CreatedAt     time.Time    `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt     time.Time    `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// LessonSummary is a lesson list entry with its effective lock state for the
// caller.
type LessonSummary struct {
	Lesson
	Locked bool `json:"locked"`
}

// LockedByDefault reports the admin lock state of the lesson at index in its
// section. Without an explicit setting only the first lesson is free.
func (l *Lesson) LockedByDefault(index int) bool {
	switch l.IsLocked {
	case LockOpen:
		return false
	case LockLocked:
		return true
	}
	return index != 0
}
