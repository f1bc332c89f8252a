package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shikshahq/shiksha/core/teacherprofile"
)

type teacherRepository struct {
	db *teacherTable
}

var _ teacherprofile.Repository = (*teacherRepository)(nil)

func NewTeacherRepository(db *DB) *teacherRepository {
	return &teacherRepository{db: db.teachers}
}

func (repo *teacherRepository) query() []teacherprofile.Profile {
	profs := make([]teacherprofile.Profile, 0, len(repo.db.table))
	for _, p := range repo.db.table {
		profs = append(profs, *p)
	}
	sort.Slice(profs, func(i, j int) bool { return profs[i].CreatedAt.After(profs[j].CreatedAt) })
	return profs
}

func (repo *teacherRepository) CreateProfile(_ context.Context, p teacherprofile.Profile) (teacherprofile.Profile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	p.ID = uuid.NewString()
	repo.db.table[p.ID] = &p
	return p, nil
}

func (repo *teacherRepository) GetProfileByID(_ context.Context, id string) (teacherprofile.Profile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.table[id]; ok {
		return *p, nil
	}
	return teacherprofile.Profile{}, teacherprofile.ErrNotFound
}

func (repo *teacherRepository) GetProfileByUserID(_ context.Context, userID string) (teacherprofile.Profile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, p := range repo.db.table {
		if p.UserID == userID {
			return *p, nil
		}
	}
	return teacherprofile.Profile{}, teacherprofile.ErrNotFound
}

func (repo *teacherRepository) FilterProfiles(_ context.Context, filter teacherprofile.QueryFilter) ([]teacherprofile.Profile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var profs []teacherprofile.Profile
	for _, p := range repo.query() {
		if matchesProfileFilter(p, filter) {
			profs = append(profs, p)
		}
	}
	return profs, nil
}

func matchesProfileFilter(p teacherprofile.Profile, filter teacherprofile.QueryFilter) bool {
	if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
		return false
	}
	if filter.Status != "" && p.Status != filter.Status {
		return false
	}
	if filter.Subject != "" {
		var found bool
		for _, s := range p.Subjects {
			if s == filter.Subject {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (repo *teacherRepository) UpdateProfile(_ context.Context, p teacherprofile.Profile) (teacherprofile.Profile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[p.ID]; !ok {
		return teacherprofile.Profile{}, teacherprofile.ErrNotFound
	}
	repo.db.table[p.ID] = &p
	return p, nil
}

func (repo *teacherRepository) SetProfileStatus(_ context.Context, id, status string) (teacherprofile.Profile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	p, ok := repo.db.table[id]
	if !ok {
		return teacherprofile.Profile{}, teacherprofile.ErrNotFound
	}
	p.Status = status
	p.UpdatedAt = time.Now().UTC()
	return *p, nil
}

func (repo *teacherRepository) DeleteProfilesByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
