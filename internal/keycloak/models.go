// Пакет keycloak — HTTP-клиент к Keycloak Admin REST API.
// models.go — модели данных Keycloak.
package keycloak

// TokenResponse — ответ на запрос токена (Client Credentials или Password flow).
type TokenResponse struct {
	AccessToken string `json:"access_token"` //nolint:gosec // G117: структура токена OAuth2
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// KeycloakUser — пользователь в Keycloak.
// Attributes содержит произвольные realm-атрибуты: Keycloak хранит каждое
// значение как массив строк.
type KeycloakUser struct { //nolint:revive // stuttering допустим — внешний API Keycloak
	ID            string              `json:"id"`
	Username      string              `json:"username"`
	Email         string              `json:"email"`
	FirstName     string              `json:"firstName"`
	LastName      string              `json:"lastName"`
	Enabled       bool                `json:"enabled"`
	CreatedAt     int64               `json:"createdTimestamp"` // миллисекунды
	EmailVerified bool                `json:"emailVerified"`
	Attributes    map[string][]string `json:"attributes,omitempty"`
}

// FirstAttr возвращает первое значение атрибута или пустую строку.
func (u *KeycloakUser) FirstAttr(name string) string {
	if vals, ok := u.Attributes[name]; ok && len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// userCredential — credential пользователя при создании.
type userCredential struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	Temporary bool   `json:"temporary"`
}

// userCreateRequest — запрос на создание пользователя в Keycloak.
// Используется внутренне; поля соответствуют Keycloak Admin REST API.
type userCreateRequest struct {
	Username      string              `json:"username"`
	Email         string              `json:"email,omitempty"`
	FirstName     string              `json:"firstName,omitempty"`
	LastName      string              `json:"lastName,omitempty"`
	Enabled       bool                `json:"enabled"`
	EmailVerified bool                `json:"emailVerified"`
	Credentials   []userCredential    `json:"credentials,omitempty"`
	Attributes    map[string][]string `json:"attributes,omitempty"`
}

// RealmRepresentation — краткая информация о realm.
type RealmRepresentation struct {
	Realm   string `json:"realm"`
	Enabled bool   `json:"enabled"`
}
