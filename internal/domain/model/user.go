package model

// User — пользователь магазина.
// Хранится в Keycloak (realm easybuy), не в локальной БД.
type User struct {
	// Username — уникальное имя пользователя
	Username string `json:"username"`
	// FirstName — имя
	FirstName string `json:"firstName"`
	// LastName — фамилия
	LastName string `json:"lastName"`
	// Email — адрес электронной почты
	Email string `json:"emailid"`
	// PhoneNumber — номер телефона (атрибут phno в Keycloak)
	PhoneNumber string `json:"mobilenumber"`
	// City — город (атрибут city в Keycloak)
	City string `json:"city"`
	// Password — пароль; только на запись, в ответах не возвращается
	Password string `json:"password,omitempty"`
}

// Credentials — credentials для проверки логина.
type Credentials struct {
	// Username — имя пользователя
	Username string `json:"username"`
	// Password — пароль
	Password string `json:"password"`
}
