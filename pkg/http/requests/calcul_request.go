package requests

type CalculRequest struct {
	Xa string `json:"Xa" form:"Xa" query:"Xa"`
	T  string `json:"T" form:"T" query:"T"`
}
