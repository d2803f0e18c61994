package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"splitfree/models"
)

// NewGormStore returns a Store backed by db.
func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Events:   &gormEvents{db: db},
		Users:    &gormUsers{db: db},
		Groups:   &gormGroups{db: db},
		Friends:  &gormFriends{db: db},
		Requests: &gormRequests{db: db},
		People:   &gormPeople{db: db},
		Expenses: &gormExpenses{db: db},
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func byID(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

type gormEvents struct {
	db *gorm.DB
}

func (r *gormEvents) Get(ctx context.Context, id uint) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).Preload("Participants", byID).First(&event, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &event, nil
}

func (r *gormEvents) List(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := r.db.WithContext(ctx).Preload("Participants", byID).Order("id").Find(&events).Error
	return events, err
}

func (r *gormEvents) Save(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if event.ID == 0 {
			return tx.Create(event).Error
		}

		var count int64
		if err := tx.Model(&models.Event{}).Where("id = ?", event.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}

		if err := tx.Omit("Participants").Save(event).Error; err != nil {
			return err
		}
		for i := range event.Participants {
			event.Participants[i].EventID = event.ID
			if err := tx.Save(&event.Participants[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *gormEvents) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&models.Participant{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Event{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

type gormUsers struct {
	db *gorm.DB
}

func (r *gormUsers) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *gormUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *gormUsers) GetByFriendCode(ctx context.Context, code string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("friend_code = ?", code).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *gormUsers) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *gormUsers) Save(ctx context.Context, user *models.User) error {
	result := r.db.WithContext(ctx).Model(user).Select("*").Omit("CreatedAt").Updates(user)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type gormGroups struct {
	db *gorm.DB
}

func (r *gormGroups) Get(ctx context.Context, id uint) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).Preload("Members").First(&group, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &group, nil
}

func (r *gormGroups) List(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.WithContext(ctx).Preload("Members").Order("id").Find(&groups).Error
	return groups, err
}

func (r *gormGroups) Create(ctx context.Context, group *models.Group) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *gormGroups) Save(ctx context.Context, group *models.Group) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Group{}).Where("id = ?", group.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		if err := tx.Model(group).Select("Name", "Icon", "IconBgColor").Updates(group).Error; err != nil {
			return err
		}

		if err := tx.Where("group_id = ?", group.ID).Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}
		for i := range group.Members {
			group.Members[i].GroupID = group.ID
		}
		if len(group.Members) == 0 {
			return nil
		}
		return tx.Create(&group.Members).Error
	})
}

func (r *gormGroups) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", id).Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Group{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

type gormFriends struct {
	db *gorm.DB
}

func (r *gormFriends) List(ctx context.Context) ([]models.Friend, error) {
	var friends []models.Friend
	err := r.db.WithContext(ctx).Order("id").Find(&friends).Error
	return friends, err
}

func (r *gormFriends) Create(ctx context.Context, friend *models.Friend) error {
	return r.db.WithContext(ctx).Create(friend).Error
}

func (r *gormFriends) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Friend{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type gormRequests struct {
	db *gorm.DB
}

func (r *gormRequests) Get(ctx context.Context, id uint) (*models.FriendRequest, error) {
	var request models.FriendRequest
	if err := r.db.WithContext(ctx).First(&request, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &request, nil
}

func (r *gormRequests) List(ctx context.Context) ([]models.FriendRequest, error) {
	var requests []models.FriendRequest
	err := r.db.WithContext(ctx).Order("id").Find(&requests).Error
	return requests, err
}

func (r *gormRequests) Create(ctx context.Context, request *models.FriendRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *gormRequests) Save(ctx context.Context, request *models.FriendRequest) error {
	res := r.db.WithContext(ctx).Model(request).Select("Status").Updates(request)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type gormPeople struct {
	db *gorm.DB
}

func (r *gormPeople) Get(ctx context.Context, id uint) (*models.Person, error) {
	var person models.Person
	if err := r.db.WithContext(ctx).First(&person, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &person, nil
}

func (r *gormPeople) List(ctx context.Context) ([]models.Person, error) {
	var people []models.Person
	err := r.db.WithContext(ctx).Order("id").Find(&people).Error
	return people, err
}

func (r *gormPeople) Create(ctx context.Context, person *models.Person) error {
	return r.db.WithContext(ctx).Create(person).Error
}

type gormExpenses struct {
	db *gorm.DB
}

func (r *gormExpenses) List(ctx context.Context) ([]models.Expense, error) {
	var expenses []models.Expense
	err := r.db.WithContext(ctx).Order("id").Find(&expenses).Error
	return expenses, err
}

func (r *gormExpenses) Create(ctx context.Context, expense *models.Expense) error {
	return r.db.WithContext(ctx).Create(expense).Error
}
