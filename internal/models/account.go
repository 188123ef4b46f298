package models

// Account 代表身份提供方中的一个账号。
// 账号只负责认证，健身资料保存在同 ID 的 Profile 文档中。
type Account struct {
	BaseModel
	Email        string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"` // 不暴露密码哈希
}

// AccountInfo holds the public part of an account, as cached by clients.
type AccountInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Info returns the public view of the account.
func (a *Account) Info() AccountInfo {
	return AccountInfo{ID: a.ID, Email: a.Email}
}

// TableName 指定 Account 模型的表名。
func (Account) TableName() string {
	return "accounts"
}
