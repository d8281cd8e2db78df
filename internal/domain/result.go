package domain

// OperationResult — типизированный итог любого write-workflow
// (регистрация, переподтверждение, выполнение заданий).
//
// Workflows никогда не возвращают ошибку наружу — только результат.
type OperationResult struct {
	// Identifier — email аккаунта.
	Identifier string `json:"identifier"`

	// Data — полезная нагрузка для экспорта (обычно пароль).
	Data string `json:"data"`

	// Status — успех операции.
	Status bool `json:"status"`
}

// ReferralPoint — реферальные начисления аккаунта.
type ReferralPoint struct {
	Commission float64 `json:"commission"`
}

// RewardPoint — накопленные баллы аккаунта.
type RewardPoint struct {
	Points          float64 `json:"points"`
	RegisterPoints  float64 `json:"registerpoints"`
	TwitterPoints   float64 `json:"twitter_x_id_points"`
	DiscordPoints   float64 `json:"discordid_points"`
	TelegramPoints  float64 `json:"telegramid_points"`
}

// UserInfo — ответ платформы на запрос информации о пользователе.
type UserInfo struct {
	ReferralPoint *ReferralPoint `json:"referralPoint"`
	RewardPoint   *RewardPoint   `json:"rewardPoint"`
}

// TotalPoints суммирует все баллы аккаунта для логов и отчётов.
func (u *UserInfo) TotalPoints() float64 {
	if u == nil || u.RewardPoint == nil {
		return 0
	}
	rp := u.RewardPoint
	total := rp.Points + rp.RegisterPoints + rp.TwitterPoints + rp.DiscordPoints + rp.TelegramPoints
	if u.ReferralPoint != nil {
		total += u.ReferralPoint.Commission
	}
	return total
}

// StatisticData — итог read-only workflow получения статистики.
type StatisticData struct {
	// Success — удалось ли получить данные.
	Success bool `json:"success"`

	// ReferralPoint / RewardPoint — показания платформы.
	// nil при Success=false.
	ReferralPoint *ReferralPoint `json:"referralPoint,omitempty"`
	RewardPoint   *RewardPoint   `json:"rewardPoint,omitempty"`
}
