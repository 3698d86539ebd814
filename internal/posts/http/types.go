package http

type createPostReq struct {
	Caption  string `json:"caption"`
	ImageURL string `json:"image_url"`
}

type addCommentReq struct {
	Text string `json:"text"`
}
