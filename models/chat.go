package models

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Chat 代表一個一對一或群組對話
type Chat struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	ChatName      string              `bson:"chatName,omitempty" json:"chatName,omitempty"`
	IsGroupChat   bool                `bson:"isGroupChat" json:"isGroupChat"`
	Users         []ParticipantRef    `bson:"users" json:"users"`
	LatestMessage *primitive.ObjectID `bson:"latestMessage,omitempty" json:"latestMessage,omitempty"`
	GroupAdmin    *primitive.ObjectID `bson:"groupAdmin,omitempty" json:"groupAdmin,omitempty"`
	// DirectKey 只存在於一對一聊天，由唯一索引保證同一對參與者只有一個聊天
	DirectKey string    `bson:"directKey,omitempty" json:"-"`
	Version   int64     `bson:"version" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`

	// 以下欄位在讀取時解析，不寫入資料庫
	Members []Profile `bson:"-" json:"members,omitempty"`
	Latest  *Message  `bson:"-" json:"latest,omitempty"`
	Admin   *Profile  `bson:"-" json:"admin,omitempty"`
}

// HasParticipant 回報 ref 是否為目前的成員
func (c *Chat) HasParticipant(ref ParticipantRef) bool {
	return lo.Contains(c.Users, ref)
}

// AdminRef 回傳群組管理員的 ParticipantRef；管理員一定是 User
func (c *Chat) AdminRef() (ParticipantRef, bool) {
	if c.GroupAdmin == nil {
		return ParticipantRef{}, false
	}
	return ParticipantRef{ID: *c.GroupAdmin, Kind: KindUser}, true
}

// Validate 檢查聊天的結構不變量，每次變更前都要呼叫
func (c *Chat) Validate() error {
	for _, u := range c.Users {
		if err := u.Validate(); err != nil {
			return err
		}
	}
	if len(lo.Uniq(c.Users)) != len(c.Users) {
		return fmt.Errorf("%w: duplicate participants", ErrInvalidArgument)
	}

	if !c.IsGroupChat {
		if len(c.Users) != 2 {
			return fmt.Errorf("%w: a direct chat needs exactly two participants", ErrInvalidArgument)
		}
		if c.GroupAdmin != nil {
			return fmt.Errorf("%w: a direct chat has no admin", ErrInvalidArgument)
		}
		if c.DirectKey != DirectKey(c.Users[0], c.Users[1]) {
			return fmt.Errorf("%w: direct key does not match participants", ErrInvalidArgument)
		}
		return nil
	}

	if len(c.Users) < 2 {
		return fmt.Errorf("%w: a group chat needs at least two participants", ErrInvalidArgument)
	}
	admin, ok := c.AdminRef()
	if !ok {
		return fmt.Errorf("%w: a group chat needs an admin", ErrInvalidArgument)
	}
	if !c.HasParticipant(admin) {
		return fmt.Errorf("%w: group admin must be a participant", ErrInvalidArgument)
	}
	return nil
}
