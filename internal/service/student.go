package service

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "time"
    "unicode/utf8"

    "github.com/iliyamo/student-records/internal/identity"
    "github.com/iliyamo/student-records/internal/model"
    "github.com/iliyamo/student-records/internal/repository"
    "github.com/iliyamo/student-records/internal/utils"
)

// maxNameLen caps the display name, matching the VARCHAR(100) column.
const maxNameLen = 100

// StudentService is the versioned update engine.  Every mutation of an
// existing record atomically (a) snapshots the pre-mutation state into
// student_history tagged with the version being replaced, (b) bumps
// the version by exactly 1 and (c) persists the new state.  All three
// happen in one transaction; a partial write is never observable.
//
// The service runs one id strategy per deployment:
//   random  – ids are generated, updates require the record's edit token.
//   derived – ids are dob+phone, presenting the pair that resolves to
//             the id is the authorization.
type StudentService struct {
    students   *repository.StudentRepo
    history    *repository.HistoryRepo
    strategy   string
    bcryptCost int
    now        func() time.Time
}

// NewStudentService builds the engine.  strategy must be one of the
// identity.Strategy* constants; bcryptCost controls edit-token hashing.
func NewStudentService(students *repository.StudentRepo, history *repository.HistoryRepo, strategy string, bcryptCost int) *StudentService {
    return &StudentService{
        students:   students,
        history:    history,
        strategy:   strategy,
        bcryptCost: bcryptCost,
        now:        func() time.Time { return time.Now().UTC() },
    }
}

// Strategy reports the configured id strategy so the boundary layer
// can shape requests and responses accordingly.
func (s *StudentService) Strategy() string { return s.strategy }

// CreateInput carries the fields accepted when creating a randomly
// keyed record.
type CreateInput struct {
    Name *string
}

// CreateResult is returned from Create.  EditToken is the plain secret
// and this is the only time it is ever exposed; only its bcrypt hash
// is stored.
type CreateResult struct {
    Student   model.Student
    EditToken string
}

// Create makes a new record under the random strategy: fresh 128-bit
// id, fresh edit token, version 1.  No history row is written – there
// is nothing to snapshot yet.
func (s *StudentService) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
    if err := validateName(in.Name); err != nil {
        return nil, err
    }
    id, err := identity.NewRandomID()
    if err != nil {
        return nil, &StorageError{Op: "generate id", Err: err}
    }
    token, err := identity.NewEditToken()
    if err != nil {
        return nil, &StorageError{Op: "generate edit token", Err: err}
    }
    hash, err := utils.HashEditToken(token, s.bcryptCost)
    if err != nil {
        return nil, &StorageError{Op: "hash edit token", Err: err}
    }
    st := model.Student{
        ID:            id,
        Name:          in.Name,
        EditTokenHash: &hash,
        Version:       1,
        UpdatedAt:     s.now(),
    }
    if err := s.students.Create(ctx, &st); err != nil {
        if errors.Is(err, repository.ErrDuplicateKey) {
            return nil, &ConflictError{ID: id}
        }
        return nil, &StorageError{Op: "create student", Err: err}
    }
    return &CreateResult{Student: st, EditToken: token}, nil
}

// UpsertInput carries the fields for the derived-strategy upsert.  Dob
// and Phone are both the key material and the authorization proof.
type UpsertInput struct {
    Dob   string
    Phone string
    Name  *string
}

// UpsertResult reports the post-operation record and whether it was
// freshly created.
type UpsertResult struct {
    Student model.Student
    Created bool
}

// Upsert resolves the derived id and either creates the record at
// version 1 or updates the existing one (snapshot, apply name, bump
// version).  Possessing the (dob, phone) pair that resolves to the id
// is the proof of edit rights, so no token check happens here.
func (s *StudentService) Upsert(ctx context.Context, in UpsertInput) (*UpsertResult, error) {
    id, err := identity.DeriveStudentID(in.Dob, in.Phone)
    if err != nil {
        return nil, validationFrom(err)
    }
    if err := validateName(in.Name); err != nil {
        return nil, err
    }
    tx, err := s.students.DB().BeginTx(ctx, nil)
    if err != nil {
        return nil, &StorageError{Op: "begin upsert", Err: err}
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    cur, err := s.students.GetByIDTx(ctx, tx, id)
    if errors.Is(err, sql.ErrNoRows) {
        st := model.Student{
            ID:        id,
            Dob:       &in.Dob,
            Phone:     &in.Phone,
            Name:      in.Name,
            Version:   1,
            UpdatedAt: s.now(),
        }
        if err := s.students.CreateTx(ctx, tx, &st); err != nil {
            if errors.Is(err, repository.ErrDuplicateKey) {
                return nil, &ConflictError{ID: id}
            }
            return nil, &StorageError{Op: "create student", Err: err}
        }
        if err := tx.Commit(); err != nil {
            return nil, &StorageError{Op: "commit create", Err: err}
        }
        committed = true
        return &UpsertResult{Student: st, Created: true}, nil
    }
    if err != nil {
        return nil, &StorageError{Op: "load student", Err: err}
    }

    next, err := s.applyUpdateTx(ctx, tx, cur, in.Name, nil, nil)
    if err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, &StorageError{Op: "commit update", Err: err}
    }
    committed = true
    return &UpsertResult{Student: *next, Created: false}, nil
}

// UpdateInput carries an update to an existing record.  EditToken is
// the proof under the random strategy; ProofDob/ProofPhone are the
// proof under the derived strategy.  Name is mutable under both
// strategies; Dob and Phone are new values honored only under the
// derived strategy.
type UpdateInput struct {
    EditToken  string
    ProofDob   *string
    ProofPhone *string
    Name       *string
    Dob        *string
    Phone      *string
}

// Update authorizes and applies a mutation to the record at id.  On a
// failed authorization nothing is written.  The id is never
// re-derived: under the derived strategy a record keeps its original
// key even when dob or phone change underneath it.
func (s *StudentService) Update(ctx context.Context, id string, in UpdateInput) (*model.Student, error) {
    if err := validateName(in.Name); err != nil {
        return nil, err
    }
    var newDob, newPhone *string
    if s.strategy == identity.StrategyDerived {
        if in.Dob != nil {
            if err := identity.ValidateDob(*in.Dob); err != nil {
                return nil, validationFrom(err)
            }
            newDob = in.Dob
        }
        if in.Phone != nil {
            if err := identity.ValidatePhone(*in.Phone); err != nil {
                return nil, validationFrom(err)
            }
            newPhone = in.Phone
        }
    }

    tx, err := s.students.DB().BeginTx(ctx, nil)
    if err != nil {
        return nil, &StorageError{Op: "begin update", Err: err}
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    cur, err := s.students.GetByIDTx(ctx, tx, id)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, &NotFoundError{Resource: "student", ID: id}
    }
    if err != nil {
        return nil, &StorageError{Op: "load student", Err: err}
    }
    if err := s.authorize(cur, in); err != nil {
        return nil, err
    }

    next, err := s.applyUpdateTx(ctx, tx, cur, in.Name, newDob, newPhone)
    if err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, &StorageError{Op: "commit update", Err: err}
    }
    committed = true
    return next, nil
}

// authorize checks the caller's proof of edit rights against the
// current record.  Random strategy: the presented edit token must
// verify against the stored bcrypt hash.  Derived strategy: the
// presented (dob, phone) pair must resolve to the record's id.
func (s *StudentService) authorize(cur *model.Student, in UpdateInput) error {
    if s.strategy == identity.StrategyRandom {
        if cur.EditTokenHash == nil || in.EditToken == "" ||
            !utils.VerifyEditToken(*cur.EditTokenHash, in.EditToken) {
            return &AuthorizationError{Reason: "invalid edit token"}
        }
        return nil
    }
    if in.ProofDob == nil || in.ProofPhone == nil {
        return &AuthorizationError{Reason: "dob and phone required to edit this record"}
    }
    derived, err := identity.DeriveStudentID(*in.ProofDob, *in.ProofPhone)
    if err != nil {
        return validationFrom(err)
    }
    if derived != cur.ID {
        return &AuthorizationError{Reason: "dob and phone do not match this record"}
    }
    return nil
}

// applyUpdateTx performs the snapshot–mutate–persist sequence inside
// an open transaction: history row tagged with the current version
// first, then the CAS update to version+1.  Both either land together
// on commit or disappear together on rollback.
func (s *StudentService) applyUpdateTx(ctx context.Context, tx *sql.Tx, cur *model.Student, name, dob, phone *string) (*model.Student, error) {
    snap, err := json.Marshal(cur.Snapshot())
    if err != nil {
        return nil, &StorageError{Op: "encode snapshot", Err: err}
    }
    h := model.StudentHistory{
        StudentID: cur.ID,
        Version:   cur.Version,
        Snapshot:  snap,
        ChangedAt: s.now(),
    }
    if err := s.history.InsertTx(ctx, tx, &h); err != nil {
        if errors.Is(err, repository.ErrDuplicateKey) {
            return nil, &ConflictError{ID: cur.ID}
        }
        return nil, &StorageError{Op: "append history", Err: err}
    }

    next := *cur
    if name != nil {
        next.Name = name
    }
    if dob != nil {
        next.Dob = dob
    }
    if phone != nil {
        next.Phone = phone
    }
    next.Version = cur.Version + 1
    next.UpdatedAt = s.now()

    if err := s.students.UpdateTx(ctx, tx, &next, cur.Version); err != nil {
        if errors.Is(err, repository.ErrVersionConflict) {
            return nil, &ConflictError{ID: cur.ID}
        }
        return nil, &StorageError{Op: "update student", Err: err}
    }
    return &next, nil
}

// Get is the read-only record reader.  The returned student still
// carries the token hash internally; the boundary layer never
// serializes it.
func (s *StudentService) Get(ctx context.Context, id string) (*model.Student, error) {
    st, err := s.students.GetByID(ctx, id)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, &NotFoundError{Resource: "student", ID: id}
    }
    if err != nil {
        return nil, &StorageError{Op: "load student", Err: err}
    }
    return st, nil
}

// History lists a record's snapshots ordered by version ascending.
// The student must exist; an id with no updates yields an empty list.
func (s *StudentService) History(ctx context.Context, id string) ([]model.StudentHistory, error) {
    if _, err := s.Get(ctx, id); err != nil {
        return nil, err
    }
    entries, err := s.history.ListByStudent(ctx, id)
    if err != nil {
        return nil, &StorageError{Op: "list history", Err: err}
    }
    return entries, nil
}

// validateName enforces the 100-character cap on display names.
func validateName(name *string) error {
    if name != nil && utf8.RuneCountInString(*name) > maxNameLen {
        return &ValidationError{Field: "name", Reason: "must be at most 100 characters"}
    }
    return nil
}

// validationFrom converts an identity.FieldError into the service
// taxonomy, passing anything else through unchanged.
func validationFrom(err error) error {
    var fe *identity.FieldError
    if errors.As(err, &fe) {
        return &ValidationError{Field: fe.Field, Reason: fe.Reason}
    }
    return err
}
