package models

// DayDuration identifies the half- or full-day slot of a trainer booking.
type DayDuration string

const (
	DayDurationAM   DayDuration = "AM"
	DayDurationPM   DayDuration = "PM"
	DayDurationFull DayDuration = "AM&PM"
)

// Valid reports whether the value is one of the known slots.
func (d DayDuration) Valid() bool {
	switch d {
	case DayDurationAM, DayDurationPM, DayDurationFull:
		return true
	}
	return false
}

// SlotsConflict applies the slot overlap rule: AM and PM coexist on the
// same date, but a full-day booking overlaps either half, and identical
// slots always collide.
func SlotsConflict(a, b DayDuration) bool {
	if a == "" || b == "" {
		return false
	}
	return a == DayDurationFull || b == DayDurationFull || a == b
}

// AssignmentKey locates a trainer assignment inside an allocation table.
type AssignmentKey struct {
	Row     int `json:"row"`
	Batch   int `json:"batch"`
	Trainer int `json:"trainer"`
}

// BatchKey locates a batch inside an allocation table.
type BatchKey struct {
	Row   int `json:"row"`
	Batch int `json:"batch"`
}

// BatchKey returns the batch portion of the key.
func (k AssignmentKey) BatchKey() BatchKey {
	return BatchKey{Row: k.Row, Batch: k.Batch}
}

// TrainerAssignment is one trainer's commitment to a batch. Identity and
// date fields stay empty until the operator fills them in; an assignment
// missing any of trainer, slot, or range is "not yet schedulable" and is
// ignored by availability and validation scans.
type TrainerAssignment struct {
	TrainerID     string      `json:"trainerId"`
	TrainerName   string      `json:"trainerName"`
	DayDuration   DayDuration `json:"dayDuration"`
	StartDate     string      `json:"startDate"`
	EndDate       string      `json:"endDate"`
	ActiveDates   []string    `json:"activeDates"`
	DailyHours    []float64   `json:"dailyHours"`
	AssignedHours float64     `json:"assignedHours"`
	PerHourCost   float64     `json:"perHourCost"`
	Topics        []string    `json:"topics,omitempty"`
}

// AssignmentSchedule is the fully schedulable view of an assignment.
type AssignmentSchedule struct {
	TrainerID   string
	TrainerName string
	Slot        DayDuration
	StartDate   string
	EndDate     string
}

// Schedule returns the schedulable variant of the assignment, or false
// when any of trainer, slot, start, or end is still missing.
func (t *TrainerAssignment) Schedule() (AssignmentSchedule, bool) {
	if t == nil || t.TrainerID == "" || t.StartDate == "" || t.EndDate == "" || !t.DayDuration.Valid() {
		return AssignmentSchedule{}, false
	}
	return AssignmentSchedule{
		TrainerID:   t.TrainerID,
		TrainerName: t.TrainerName,
		Slot:        t.DayDuration,
		StartDate:   t.StartDate,
		EndDate:     t.EndDate,
	}, true
}

// Clone returns a deep copy of the assignment.
func (t *TrainerAssignment) Clone() *TrainerAssignment {
	if t == nil {
		return nil
	}
	cp := *t
	cp.ActiveDates = append([]string(nil), t.ActiveDates...)
	cp.DailyHours = append([]float64(nil), t.DailyHours...)
	cp.Topics = append([]string(nil), t.Topics...)
	return &cp
}

// Batch is a physical group of students inside a specialization row.
type Batch struct {
	BatchCode        string               `json:"batchCode"`
	StudentsAssigned int                  `json:"studentsAssigned"`
	HoursBudget      float64              `json:"hoursBudget"`
	Trainers         []*TrainerAssignment `json:"trainers"`
}

// Clone returns a deep copy of the batch.
func (b *Batch) Clone() *Batch {
	if b == nil {
		return nil
	}
	cp := *b
	cp.Trainers = make([]*TrainerAssignment, len(b.Trainers))
	for i, trainer := range b.Trainers {
		cp.Trainers[i] = trainer.Clone()
	}
	return &cp
}

// MergeRecord captures both original rows of a merge so exactly one
// undo can restore them. It is cleared by any later merge or edit.
type MergeRecord struct {
	Source      *SpecializationRow `json:"source"`
	Target      *SpecializationRow `json:"target"`
	SourceIndex int                `json:"sourceIndex"`
	TargetIndex int                `json:"targetIndex"`
}

// SpecializationRow is one course/track within a domain.
type SpecializationRow struct {
	Domain             string       `json:"domain"`
	SpecializationName string       `json:"specializationName"`
	StudentCount       int          `json:"studentCount"`
	TotalHours         float64      `json:"totalHours"`
	Batches            []*Batch     `json:"batches"`
	IsMerged           bool         `json:"isMerged,omitempty"`
	MergedFromNames    string       `json:"mergedFromNames,omitempty"`
	Snapshot           *MergeRecord `json:"-"`
}

// Clone returns a deep copy of the row. The merge snapshot is not
// carried over: a copied row is a fresh row with no undo history.
func (r *SpecializationRow) Clone() *SpecializationRow {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Snapshot = nil
	cp.Batches = make([]*Batch, len(r.Batches))
	for i, batch := range r.Batches {
		cp.Batches[i] = batch.Clone()
	}
	return &cp
}

// AssignedStudents sums studentsAssigned across the row's batches.
func (r *SpecializationRow) AssignedStudents() int {
	total := 0
	for _, batch := range r.Batches {
		total += batch.StudentsAssigned
	}
	return total
}

// AllocationTable is the mutable tree of rows being edited for one
// training/college. It has a single writer: the allocation service.
type AllocationTable []*SpecializationRow

// Clone deep-copies the table.
func (t AllocationTable) Clone() AllocationTable {
	cp := make(AllocationTable, len(t))
	for i, row := range t {
		cp[i] = row.Clone()
	}
	return cp
}

// Assignment resolves a key to its assignment, or nil when out of range.
func (t AllocationTable) Assignment(key AssignmentKey) *TrainerAssignment {
	if key.Row < 0 || key.Row >= len(t) {
		return nil
	}
	row := t[key.Row]
	if key.Batch < 0 || key.Batch >= len(row.Batches) {
		return nil
	}
	batch := row.Batches[key.Batch]
	if key.Trainer < 0 || key.Trainer >= len(batch.Trainers) {
		return nil
	}
	return batch.Trainers[key.Trainer]
}

// BatchAt resolves a batch key, or nil when out of range.
func (t AllocationTable) BatchAt(key BatchKey) *Batch {
	if key.Row < 0 || key.Row >= len(t) {
		return nil
	}
	row := t[key.Row]
	if key.Batch < 0 || key.Batch >= len(row.Batches) {
		return nil
	}
	return row.Batches[key.Batch]
}
