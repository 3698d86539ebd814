package http

type signUpReq struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type signInReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updatePhotoReq struct {
	PhotoURL string `json:"photo_url"`
}
