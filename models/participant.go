package models

import (
	"fmt"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind 區分參與者屬於哪一個主體集合
type Kind string

const (
	KindUser   Kind = "User"
	KindLawyer Kind = "Lawyer"
)

// Valid 回報 Kind 是否為已知的主體類型
func (k Kind) Valid() bool {
	return k == KindUser || k == KindLawyer
}

// ParticipantRef 是指向使用者或律師的帶標籤識別碼。
// Kind 決定 ID 要到哪個集合解析，兩者合起來才是唯一的外鍵。
type ParticipantRef struct {
	ID   primitive.ObjectID `bson:"participantId" json:"participantId"`
	Kind Kind               `bson:"participantModel" json:"participantModel"`
}

// NewParticipantRef 從 hex 字串與類型建立 ParticipantRef 並驗證格式
func NewParticipantRef(idHex string, kind Kind) (ParticipantRef, error) {
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return ParticipantRef{}, fmt.Errorf("%w: invalid participant id %q", ErrInvalidArgument, idHex)
	}
	ref := ParticipantRef{ID: id, Kind: kind}
	if err := ref.Validate(); err != nil {
		return ParticipantRef{}, err
	}
	return ref, nil
}

// Validate 檢查 ID 非零且 Kind 合法
func (p ParticipantRef) Validate() error {
	if p.ID.IsZero() {
		return fmt.Errorf("%w: participant id is required", ErrInvalidArgument)
	}
	if !p.Kind.Valid() {
		return fmt.Errorf("%w: unknown participant kind %q", ErrInvalidArgument, p.Kind)
	}
	return nil
}

// Key 是參與者的身分字串，同時作為個人房間的名稱
func (p ParticipantRef) Key() string {
	return string(p.Kind) + ":" + p.ID.Hex()
}

func (p ParticipantRef) String() string {
	return p.Key()
}

// DirectKey 產生一對一聊天的去重鍵，與參數順序無關
func DirectKey(a, b ParticipantRef) string {
	keys := []string{a.Key(), b.Key()}
	sort.Strings(keys)
	return strings.Join(keys, "|")
}

// Profile 是解析後的主體公開資料 (不含密碼)
type Profile struct {
	ID    primitive.ObjectID `bson:"_id" json:"_id"`
	Kind  Kind               `bson:"-" json:"participantModel"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email" json:"email"`
	Pic   string             `bson:"pic,omitempty" json:"pic,omitempty"`
}

// Ref 回傳此 Profile 對應的 ParticipantRef
func (p Profile) Ref() ParticipantRef {
	return ParticipantRef{ID: p.ID, Kind: p.Kind}
}
