// emolog is the backend service of an emotion-diary platform for
// organizational units. It provides role-based access control, JWT
// authentication, diary and dashboard APIs, and scheduled maintenance jobs.
package main
