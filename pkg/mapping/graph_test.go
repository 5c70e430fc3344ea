package mapping

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type joinedRow struct {
	parentID   int64
	parentName string
	childID    sql.NullInt64
	childName  string
}

type parent struct {
	ID   int64
	Name string
}

type child struct {
	ID   int64
	Name string
}

var errBadChild = errors.New("bad child")

func testPlan() Plan[joinedRow, parent, child] {
	return Plan[joinedRow, parent, child]{
		ParentKey: func(r joinedRow) int64 { return r.parentID },
		DecodeParent: func(r joinedRow) (parent, error) {
			return parent{ID: r.parentID, Name: r.parentName}, nil
		},
		ChildKey: func(r joinedRow) (int64, bool) { return r.childID.Int64, r.childID.Valid },
		DecodeChild: func(r joinedRow) (child, error) {
			if r.childName == "broken" {
				return child{}, errBadChild
			}
			return child{ID: r.childID.Int64, Name: r.childName}, nil
		},
	}
}

func withChild(pid int64, pname string, cid int64, cname string) joinedRow {
	return joinedRow{parentID: pid, parentName: pname, childID: sql.NullInt64{Int64: cid, Valid: true}, childName: cname}
}

func withoutChild(pid int64, pname string) joinedRow {
	return joinedRow{parentID: pid, parentName: pname}
}

func TestAssembleEmptyResult(t *testing.T) {
	groups, err := Assemble(nil, testPlan())
	require.NoError(t, err)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
}

func TestAssembleParentWithoutChildren(t *testing.T) {
	groups, err := Assemble([]joinedRow{withoutChild(1, "Toyota")}, testPlan())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, parent{ID: 1, Name: "Toyota"}, groups[0].Parent)
	assert.Nil(t, groups[0].Children)
}

func TestAssembleGroupsContiguousRows(t *testing.T) {
	rows := []joinedRow{
		withChild(1, "Toyota", 10, "Corolla"),
		withChild(1, "Toyota", 11, "Camry"),
		withoutChild(2, "Lada"),
		withChild(3, "Ford", 12, "Focus"),
	}
	groups, err := Assemble(rows, testPlan())
	require.NoError(t, err)
	require.Len(t, groups, 3)

	assert.Equal(t, int64(1), groups[0].Parent.ID)
	assert.Equal(t, []child{{ID: 10, Name: "Corolla"}, {ID: 11, Name: "Camry"}}, groups[0].Children)
	assert.Equal(t, int64(2), groups[1].Parent.ID)
	assert.Nil(t, groups[1].Children)
	assert.Equal(t, []child{{ID: 12, Name: "Focus"}}, groups[2].Children)
}

func TestAssembleCollapsesFanOutDuplicates(t *testing.T) {
	rows := []joinedRow{
		withChild(1, "Toyota", 10, "Corolla"),
		withChild(1, "Toyota", 10, "Corolla"),
		withChild(1, "Toyota", 11, "Camry"),
		withChild(1, "Toyota", 10, "Corolla"),
	}
	groups, err := Assemble(rows, testPlan())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Children, 2)
}

func TestAssembleSameChildUnderDifferentParents(t *testing.T) {
	rows := []joinedRow{
		withChild(1, "Anna", 7, "Tom"),
		withChild(2, "Boris", 7, "Tom"),
	}
	groups, err := Assemble(rows, testPlan())
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Len(t, groups[0].Children, 1)
	assert.Len(t, groups[1].Children, 1)
}

func TestAssembleRejectsUnorderedRows(t *testing.T) {
	rows := []joinedRow{
		withChild(1, "Toyota", 10, "Corolla"),
		withChild(2, "Ford", 12, "Focus"),
		withChild(1, "Toyota", 11, "Camry"),
	}
	_, err := Assemble(rows, testPlan())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRowsNotGrouped)
	assert.True(t, IsDecode(err))
}

func TestAssemblePropagatesChildDecodeFailure(t *testing.T) {
	rows := []joinedRow{withChild(1, "Toyota", 10, "broken")}
	_, err := Assemble(rows, testPlan())
	require.Error(t, err)
	assert.ErrorIs(t, err, errBadChild)
	assert.True(t, IsDecode(err))
}

func TestAssembleKeepsTypedDecodeErrorUnchanged(t *testing.T) {
	typed := &Error{Kind: ErrDecode, Entity: "model", Err: errBadChild}
	plan := testPlan()
	plan.DecodeChild = func(joinedRow) (child, error) { return child{}, typed }

	_, err := Assemble([]joinedRow{withChild(1, "Toyota", 10, "Corolla")}, plan)
	assert.Same(t, typed, err)
}

func TestAssembleOneGroupPerDistinctParent(t *testing.T) {
	var rows []joinedRow
	want := map[int64]int{1: 0, 2: 1, 3: 5}
	var next int64 = 100
	for _, pid := range []int64{1, 2, 3} {
		if want[pid] == 0 {
			rows = append(rows, withoutChild(pid, "p"))
			continue
		}
		for i := 0; i < want[pid]; i++ {
			rows = append(rows, withChild(pid, "p", next, "c"))
			next++
		}
	}

	groups, err := Assemble(rows, testPlan())
	require.NoError(t, err)
	require.Len(t, groups, 3)
	for _, g := range groups {
		assert.Len(t, g.Children, want[g.Parent.ID], "parent %d", g.Parent.ID)
	}
}
