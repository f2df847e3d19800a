package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/datingapp/dating-api/internal/core/domain"
)

const collectionUsers = "users"

// UserRepository stores users with their photos embedded. It satisfies both
// ports.UserRepository and ports.PhotoRepository.
type UserRepository struct {
	col *mongo.Collection
	seq *sequence
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		col: db.Collection(collectionUsers),
		seq: newSequence(db),
	}
}

type photoDoc struct {
	ID          int64     `bson:"id"`
	URL         string    `bson:"url"`
	Description string    `bson:"description,omitempty"`
	DateAdded   time.Time `bson:"date_added"`
	IsMain      bool      `bson:"is_main"`
	PublicID    string    `bson:"public_id,omitempty"`
}

type userDoc struct {
	ID           int64      `bson:"_id"`
	Username     string     `bson:"username"`
	PasswordHash []byte     `bson:"password_hash"`
	PasswordSalt []byte     `bson:"password_salt"`
	Gender       string     `bson:"gender,omitempty"`
	KnownAs      string     `bson:"known_as,omitempty"`
	DateOfBirth  time.Time  `bson:"date_of_birth"`
	City         string     `bson:"city,omitempty"`
	Country      string     `bson:"country,omitempty"`
	Introduction string     `bson:"introduction,omitempty"`
	LookingFor   string     `bson:"looking_for,omitempty"`
	Interests    string     `bson:"interests,omitempty"`
	Created      time.Time  `bson:"created"`
	LastActive   time.Time  `bson:"last_active"`
	Photos       []photoDoc `bson:"photos"`
}

func toUserDoc(u *domain.User) userDoc {
	doc := userDoc{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		PasswordSalt: u.PasswordSalt,
		Gender:       u.Gender,
		KnownAs:      u.KnownAs,
		DateOfBirth:  u.DateOfBirth,
		City:         u.City,
		Country:      u.Country,
		Introduction: u.Introduction,
		LookingFor:   u.LookingFor,
		Interests:    u.Interests,
		Created:      u.Created,
		LastActive:   u.LastActive,
		Photos:       make([]photoDoc, 0, len(u.Photos)),
	}
	for _, p := range u.Photos {
		doc.Photos = append(doc.Photos, toPhotoDoc(&p))
	}
	return doc
}

func toPhotoDoc(p *domain.Photo) photoDoc {
	return photoDoc{
		ID:          p.ID,
		URL:         p.URL,
		Description: p.Description,
		DateAdded:   p.DateAdded,
		IsMain:      p.IsMain,
		PublicID:    p.PublicID,
	}
}

func (d *photoDoc) toDomain(userID int64) domain.Photo {
	return domain.Photo{
		ID:          d.ID,
		UserID:      userID,
		URL:         d.URL,
		Description: d.Description,
		DateAdded:   d.DateAdded.UTC(),
		IsMain:      d.IsMain,
		PublicID:    d.PublicID,
	}
}

func (d *userDoc) toDomain() *domain.User {
	u := &domain.User{
		ID:           d.ID,
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		PasswordSalt: d.PasswordSalt,
		Gender:       d.Gender,
		KnownAs:      d.KnownAs,
		DateOfBirth:  d.DateOfBirth.UTC(),
		City:         d.City,
		Country:      d.Country,
		Introduction: d.Introduction,
		LookingFor:   d.LookingFor,
		Interests:    d.Interests,
		Created:      d.Created.UTC(),
		LastActive:   d.LastActive.UTC(),
		Photos:       make([]domain.Photo, 0, len(d.Photos)),
	}
	for i := range d.Photos {
		u.Photos = append(u.Photos, d.Photos[i].toDomain(d.ID))
	}
	return u
}

// EnsureIndexes creates the unique username index that backs duplicate
// detection.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_username"),
	})
	return err
}

// Ping is used by the readiness probe.
func (r *UserRepository) Ping(ctx context.Context) error {
	return r.col.Database().Client().Ping(ctx, nil)
}

func (r *UserRepository) Exists(ctx context.Context, username string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"username": username}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n > 0, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.seq.next(ctx, collectionUsers)
	if err != nil {
		return nil, err
	}

	doc := toUserDoc(user)
	doc.ID = id
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) TouchLastActive(ctx context.Context, id int64, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{"last_active": at}})
	if err != nil {
		return fmt.Errorf("update last_active: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// AddPhoto pushes the photo onto the user's document. The first push is
// guarded by an empty-array filter so exactly one photo ends up as main even
// under concurrent uploads.
func (r *UserRepository) AddPhoto(ctx context.Context, userID int64, photo *domain.Photo) (*domain.Photo, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.seq.next(ctx, "photos")
	if err != nil {
		return nil, err
	}

	saved := *photo
	saved.ID = id
	saved.UserID = userID

	saved.IsMain = true
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": userID, "$or": bson.A{
			bson.M{"photos": bson.M{"$size": 0}},
			bson.M{"photos": bson.M{"$exists": false}},
		}},
		bson.M{"$push": bson.M{"photos": toPhotoDoc(&saved)}},
	)
	if err != nil {
		return nil, fmt.Errorf("push main photo: %w", err)
	}
	if res.MatchedCount == 1 {
		return &saved, nil
	}

	saved.IsMain = false
	res, err = r.col.UpdateByID(ctx, userID, bson.M{"$push": bson.M{"photos": toPhotoDoc(&saved)}})
	if err != nil {
		return nil, fmt.Errorf("push photo: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrUserNotFound
	}
	return &saved, nil
}

func (r *UserRepository) FindPhoto(ctx context.Context, userID, photoID int64) (*domain.Photo, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc struct {
		Photos []photoDoc `bson:"photos"`
	}
	err := r.col.FindOne(ctx,
		bson.M{"_id": userID, "photos.id": photoID},
		options.FindOne().SetProjection(bson.M{"photos.$": 1}),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPhotoNotFound
		}
		return nil, fmt.Errorf("find photo: %w", err)
	}
	if len(doc.Photos) == 0 {
		return nil, domain.ErrPhotoNotFound
	}
	p := doc.Photos[0].toDomain(userID)
	return &p, nil
}
