package database

import (
	"context"
	"fmt"

	"lawchat/backend/models"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PrincipalStore 從 users 與 lawyers 兩個集合解析參與者
type PrincipalStore struct {
	users   *mongo.Collection
	lawyers *mongo.Collection
}

// NewPrincipalStore 建立 PrincipalStore
func NewPrincipalStore(d *DB) *PrincipalStore {
	return &PrincipalStore{
		users:   d.Collection(usersCollection),
		lawyers: d.Collection(lawyersCollection),
	}
}

func (s *PrincipalStore) collectionFor(kind models.Kind) (*mongo.Collection, error) {
	switch kind {
	case models.KindUser:
		return s.users, nil
	case models.KindLawyer:
		return s.lawyers, nil
	default:
		return nil, fmt.Errorf("%w: unknown participant kind %q", models.ErrInvalidArgument, kind)
	}
}

// Resolve 依 Kind 分組，每種類型一次 $in 查詢
func (s *PrincipalStore) Resolve(ctx context.Context, refs []models.ParticipantRef) (map[models.ParticipantRef]models.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	profiles := make(map[models.ParticipantRef]models.Profile, len(refs))
	byKind := lo.GroupBy(lo.Uniq(refs), func(r models.ParticipantRef) models.Kind { return r.Kind })

	for kind, group := range byKind {
		coll, err := s.collectionFor(kind)
		if err != nil {
			return nil, err
		}
		ids := lo.Map(group, func(r models.ParticipantRef, _ int) primitive.ObjectID { return r.ID })

		// 不讀取密碼欄位
		opts := options.Find().SetProjection(bson.M{"password": 0})
		cursor, err := coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
		if err != nil {
			return nil, translateError(err)
		}

		var found []models.Profile
		err = cursor.All(ctx, &found)
		cursor.Close(ctx)
		if err != nil {
			return nil, translateError(err)
		}
		for _, p := range found {
			p.Kind = kind
			profiles[p.Ref()] = p
		}
	}
	return profiles, nil
}

// FindCredentials 依 email 查詢登入資料
func (s *PrincipalStore) FindCredentials(ctx context.Context, kind models.Kind, email string) (*models.Credentials, error) {
	coll, err := s.collectionFor(kind)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var creds models.Credentials
	if err := coll.FindOne(ctx, bson.M{"email": email}).Decode(&creds); err != nil {
		return nil, translateError(err)
	}
	return &creds, nil
}

// CreateUser 插入新使用者；email 重複時回傳 models.ErrConflict
func (s *PrincipalStore) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	result, err := s.users.InsertOne(ctx, user)
	if err != nil {
		return translateError(err)
	}
	user.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}
