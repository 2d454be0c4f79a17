package entity

// UserState состояние пользователя в диалоге
type UserState string

const (
	StateMainMenu     UserState = "main_menu"     // В главном меню
	StateAwaitingScan UserState = "awaiting_scan" // Ожидание DICOM-файла
	StateProcessing   UserState = "processing"    // Идёт анализ
)

// User представляет пользователя бота
type User struct {
	ID             int64     // Telegram User ID
	ChatID         int64     // Telegram Chat ID
	State          UserState // Текущее состояние пользователя
	LastAnalysisID string    // Последний завершённый анализ
}

// NewUser создаёт нового пользователя с начальным состоянием
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:     userID,
		ChatID: chatID,
		State:  StateMainMenu,
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state UserState) {
	u.State = state
}
