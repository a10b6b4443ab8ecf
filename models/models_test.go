package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordKeysOrder(t *testing.T) {
	keys := RecordKeys()
	assert.Len(t, keys, 17)
	assert.Equal(t, KeyNameZh, keys[0])
	assert.Equal(t, KeyGradeEn, keys[len(keys)-1])
}

func TestRecordGetSet(t *testing.T) {
	var r Record
	assert.True(t, r.Set(KeyNameZh, "张三"))
	assert.True(t, r.Set(KeyStudentID, "S001"))
	assert.False(t, r.Set("nickname", "x"))

	assert.Equal(t, "张三", r.NameZh)
	assert.Equal(t, "S001", r.Get(KeyStudentID))
	assert.Equal(t, "", r.Get("nickname"))
	assert.True(t, IsRecordKey(KeyDOBEn))
	assert.False(t, IsRecordKey("dob"))
}

func TestRecordContext(t *testing.T) {
	r := Record{NameZh: "李四", GenderEn: "Female"}
	ctx := r.Context()
	assert.Len(t, ctx, len(RecordKeys()))
	assert.Equal(t, "李四", ctx[KeyNameZh])
	assert.Equal(t, "Female", ctx[KeyGenderEn])
	assert.Equal(t, "", ctx[KeyGrade])

	values := r.Values()
	assert.Equal(t, "李四", values[0])
}

func TestJobDone(t *testing.T) {
	assert.False(t, (&Job{Status: JobQueued}).Done())
	assert.False(t, (&Job{Status: JobRunning}).Done())
	assert.True(t, (&Job{Status: JobCompleted}).Done())
	assert.True(t, (&Job{Status: JobFailed}).Done())
}
