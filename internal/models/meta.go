package models

// Метаданные пользователя — типизированное отображение из закрытого набора
// ключей в строки. Читаются только ключи внешних провайдеров, поэтому
// произвольное key/value хранилище здесь не нужно.

// MetaAvatarURL — ключ текущего аватара пользователя, не привязанный
// к провайдеру. Пишется админкой и при социальном входе.
const MetaAvatarURL = "avatar_url"

// MetaProviderID возвращает ключ метаданных с идентификатором пользователя
// у внешнего провайдера, например "github_id".
func MetaProviderID(provider string) string {
	return provider + "_id"
}

// MetaProviderAvatarURL возвращает ключ метаданных с URL аватара
// у внешнего провайдера, например "github_avatar_url".
func MetaProviderAvatarURL(provider string) string {
	return provider + "_avatar_url"
}
